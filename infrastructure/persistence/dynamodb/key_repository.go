package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

type keyRecord struct {
	PK         string     `dynamodbav:"PK"`
	SK         string     `dynamodbav:"SK"`
	EntityType string     `dynamodbav:"EntityType"`
	KeyID      string     `dynamodbav:"keyId"`
	UserID     string     `dynamodbav:"userId"`
	Name       string     `dynamodbav:"name"`
	Prefix     string     `dynamodbav:"prefix"`
	Hash       string     `dynamodbav:"hash"`
	CreatedAt  time.Time  `dynamodbav:"createdAt"`
	LastUsedAt *time.Time `dynamodbav:"lastUsedAt,omitempty"`
	Revoked    bool       `dynamodbav:"revoked"`
}

// keyLookupRecord maps a presented secret's hash to its key row
type keyLookupRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	KeyID      string `dynamodbav:"keyId"`
	UserID     string `dynamodbav:"userId"`
}

func (r keyRecord) toEntity() *entities.DeveloperKey {
	return entities.ReconstructDeveloperKey(r.KeyID, r.UserID, r.Name, r.Prefix, r.Hash, r.CreatedAt, r.LastUsedAt, r.Revoked)
}

// DeveloperKeyRepository implements ports.DeveloperKeyRepository
type DeveloperKeyRepository struct {
	table
}

var _ ports.DeveloperKeyRepository = (*DeveloperKeyRepository)(nil)

func NewDeveloperKeyRepository(client API, cfg Config, collector *observability.Collector) *DeveloperKeyRepository {
	return &DeveloperKeyRepository{table: newTable(client, cfg, collector)}
}

// Create writes the key row and its hash lookup in one transaction
func (r *DeveloperKeyRepository) Create(ctx context.Context, key *entities.DeveloperKey) (err error) {
	defer r.observe("key_create", time.Now(), &err)

	row, err := attributevalue.MarshalMap(keyRecord{
		PK:         BuildUserPK(key.UserID()),
		SK:         BuildKeySK(key.ID()),
		EntityType: entityKey,
		KeyID:      key.ID(),
		UserID:     key.UserID(),
		Name:       key.Name(),
		Prefix:     key.Prefix(),
		Hash:       key.Hash(),
		CreatedAt:  key.CreatedAt(),
		LastUsedAt: key.LastUsedAt(),
		Revoked:    key.IsRevoked(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal developer key: %w", err)
	}
	lookup, err := attributevalue.MarshalMap(keyLookupRecord{
		PK:         BuildKeyLookupPK(key.Hash()),
		SK:         skMetadata,
		EntityType: entityLookup,
		KeyID:      key.ID(),
		UserID:     key.UserID(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal developer key lookup: %w", err)
	}

	notExists := aws.String("attribute_not_exists(PK)")
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.name), Item: row, ConditionExpression: notExists}},
			{Put: &types.Put{TableName: aws.String(r.name), Item: lookup, ConditionExpression: notExists}},
		},
	})
	return classifyError("create developer key", err, pkgerrors.NewConflictError("developer key already exists"))
}

func (r *DeveloperKeyRepository) GetByHash(ctx context.Context, hash string) (key *entities.DeveloperKey, err error) {
	defer r.observe("key_get_hash", time.Now(), &err)

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.name),
		Key:       primaryKey(BuildKeyLookupPK(hash), skMetadata),
	})
	if err != nil {
		return nil, classifyError("get developer key lookup", err, nil)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("developer key")
	}

	var lookup keyLookupRecord
	if err := attributevalue.UnmarshalMap(out.Item, &lookup); err != nil {
		return nil, fmt.Errorf("failed to unmarshal developer key lookup: %w", err)
	}
	return r.Get(ctx, lookup.UserID, lookup.KeyID)
}

func (r *DeveloperKeyRepository) Get(ctx context.Context, userID, keyID string) (key *entities.DeveloperKey, err error) {
	defer r.observe("key_get", time.Now(), &err)

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.name),
		Key:       primaryKey(BuildUserPK(userID), BuildKeySK(keyID)),
	})
	if err != nil {
		return nil, classifyError("get developer key", err, nil)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("developer key")
	}

	var rec keyRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal developer key: %w", err)
	}
	return rec.toEntity(), nil
}

// ListByUser returns the user's keys, newest first
func (r *DeveloperKeyRepository) ListByUser(ctx context.Context, userID string) (keys []*entities.DeveloperKey, err error) {
	defer r.observe("key_list", time.Now(), &err)

	input, err := NewQueryBuilder(r.name).
		WithPartition(attrPK, BuildUserPK(userID)).
		WithSortKeyBeginsWith(attrSK, prefixKey).
		Build()
	if err != nil {
		return nil, err
	}
	raw, err := queryAll(ctx, r.client, input)
	if err != nil {
		return nil, classifyError("list developer keys", err, nil)
	}

	var records []keyRecord
	if err := attributevalue.UnmarshalListOfMaps(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal developer keys: %w", err)
	}
	for _, rec := range records {
		keys = append(keys, rec.toEntity())
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt().After(keys[j].CreatedAt())
	})
	return keys, nil
}

// Revoke flags the key row and removes the lookup so the secret stops resolving
func (r *DeveloperKeyRepository) Revoke(ctx context.Context, key *entities.DeveloperKey) (err error) {
	defer r.observe("key_revoke", time.Now(), &err)

	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("revoked"), expression.Value(true))).
		WithCondition(expression.AttributeExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:                 aws.String(r.name),
				Key:                       primaryKey(BuildUserPK(key.UserID()), BuildKeySK(key.ID())),
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.name),
				Key:       primaryKey(BuildKeyLookupPK(key.Hash()), skMetadata),
			}},
		},
	})
	return classifyError("revoke developer key", err, pkgerrors.NewNotFoundError("developer key"))
}

func (r *DeveloperKeyRepository) TouchLastUsed(ctx context.Context, key *entities.DeveloperKey) (err error) {
	defer r.observe("key_touch", time.Now(), &err)

	used := time.Now().UTC()
	if key.LastUsedAt() != nil {
		used = *key.LastUsedAt()
	}
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("lastUsedAt"), expression.Value(used))).
		WithCondition(expression.AttributeExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.name),
		Key:                       primaryKey(BuildUserPK(key.UserID()), BuildKeySK(key.ID())),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return classifyError("touch developer key", err, pkgerrors.NewNotFoundError("developer key"))
}
