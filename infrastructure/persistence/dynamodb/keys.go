package dynamodb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	attrPK     = "PK"
	attrSK     = "SK"
	attrGSI1PK = "GSI1PK"
	attrGSI1SK = "GSI1SK"

	entityItem    = "ITEM"
	entityTeam    = "TEAM"
	entityMember  = "MEMBERSHIP"
	entityProfile = "PROFILE"
	entityKey     = "APIKEY"
	entityLookup  = "APIKEY_LOOKUP"

	skMetadata = "METADATA"
	skProfile  = "PROFILE"

	prefixItem = "ITEM#"
	prefixTeam = "TEAM#"
	prefixKey  = "APIKEY#"
)

// BuildUserPK constructs a user partition key: USER#{userId}
func BuildUserPK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}

// BuildItemSK constructs an item sort key: ITEM#{itemId}
func BuildItemSK(itemID string) string {
	return prefixItem + itemID
}

// BuildTeamPK constructs a team key: TEAM#{teamId}. It is also the
// membership row sort key and the GSI1 partition of TEAM items.
func BuildTeamPK(teamID string) string {
	return prefixTeam + teamID
}

// BuildKeySK constructs a developer key sort key: APIKEY#{keyId}
func BuildKeySK(keyID string) string {
	return prefixKey + keyID
}

// BuildKeyLookupPK constructs the hash lookup partition: APIKEY#{sha256}
func BuildKeyLookupPK(hash string) string {
	return prefixKey + hash
}

func primaryKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}
