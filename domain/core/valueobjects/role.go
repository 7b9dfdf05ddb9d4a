package valueobjects

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the global role of a principal
type Role struct {
	value string
	rank  int
}

var (
	RoleUser      = Role{value: "USER", rank: 1}
	RoleTeamAdmin = Role{value: "TEAM_ADMIN", rank: 2}
	RoleAdmin     = Role{value: "ADMIN", rank: 3}
)

// ParseRole accepts USER, TEAM_ADMIN and ADMIN in any case
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case RoleUser.value:
		return RoleUser, nil
	case RoleTeamAdmin.value:
		return RoleTeamAdmin, nil
	case RoleAdmin.value:
		return RoleAdmin, nil
	default:
		return Role{}, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return r.value
}

func (r Role) IsZero() bool {
	return r.value == ""
}

// AtLeast reports whether r carries the privileges of other
func (r Role) AtLeast(other Role) bool {
	return r.rank >= other.rank
}

// Max returns the more privileged of the two roles
func (r Role) Max(other Role) Role {
	if other.rank > r.rank {
		return other
	}
	return r
}

// MarshalJSON implements json.Marshaler
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role must be a string: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
