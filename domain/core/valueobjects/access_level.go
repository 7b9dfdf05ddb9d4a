package valueobjects

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AccessLevel controls who besides the owner may see an item.
// The zero value is not a valid level.
type AccessLevel struct {
	value string
}

var (
	AccessIndividual = AccessLevel{value: "INDIVIDUAL"}
	AccessTeam       = AccessLevel{value: "TEAM"}
	AccessPublic     = AccessLevel{value: "PUBLIC"}
)

// ParseAccessLevel accepts the wire names case-insensitively
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case AccessIndividual.value:
		return AccessIndividual, nil
	case AccessTeam.value:
		return AccessTeam, nil
	case AccessPublic.value:
		return AccessPublic, nil
	default:
		return AccessLevel{}, fmt.Errorf("unknown access level %q", s)
	}
}

func (a AccessLevel) String() string {
	return a.value
}

func (a AccessLevel) IsZero() bool {
	return a.value == ""
}

func (a AccessLevel) IsTeam() bool {
	return a == AccessTeam
}

func (a AccessLevel) IsPublic() bool {
	return a == AccessPublic
}

// MarshalJSON implements json.Marshaler
func (a AccessLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (a *AccessLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("access level must be a string: %w", err)
	}
	parsed, err := ParseAccessLevel(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
