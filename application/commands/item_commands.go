// Package commands defines the state-changing item operations dispatched
// through the command bus.
package commands

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// CreateItemCommand creates an item owned by User. AccessLevel and TeamID
// are optional; see ResolveAccess for how they combine.
type CreateItemCommand struct {
	ItemID      valueobjects.ItemID
	User        *entities.User
	Message     string
	AccessLevel string
	TeamID      string
}

func (c CreateItemCommand) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ItemID, validation.By(requireItemID)),
		validation.Field(&c.User, validation.By(requireUser)),
		validation.Field(&c.Message, validation.By(notBlank), validation.RuneLength(0, entities.MaxMessageLength)),
		validation.Field(&c.AccessLevel, validation.By(accessLevelString)),
	)
	if err != nil {
		return toValidationError(err)
	}
	_, _, err = c.ResolveAccess()
	return err
}

// ResolveAccess applies the defaulting rules: a team without a level means
// TEAM, neither means INDIVIDUAL. The result is checked for consistency.
func (c CreateItemCommand) ResolveAccess() (valueobjects.AccessLevel, string, error) {
	teamID := strings.TrimSpace(c.TeamID)

	var level valueobjects.AccessLevel
	switch {
	case strings.TrimSpace(c.AccessLevel) != "":
		parsed, err := valueobjects.ParseAccessLevel(c.AccessLevel)
		if err != nil {
			return valueobjects.AccessLevel{}, "", pkgerrors.NewValidationError(err.Error())
		}
		level = parsed
	case teamID != "":
		level = valueobjects.AccessTeam
	default:
		level = valueobjects.AccessIndividual
	}

	if err := entities.ValidateAccessAssignment(level, teamID); err != nil {
		return valueobjects.AccessLevel{}, "", err
	}
	return level, teamID, nil
}

// UpdateItemCommand changes the message and/or the access of an item. Nil
// fields are left untouched; an empty TeamID clears the team.
type UpdateItemCommand struct {
	ItemID      valueobjects.ItemID
	User        *entities.User
	Message     *string
	AccessLevel *string
	TeamID      *string
}

func (c UpdateItemCommand) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ItemID, validation.By(requireItemID)),
		validation.Field(&c.User, validation.By(requireUser)),
		validation.Field(&c.Message, validation.By(notBlank), validation.RuneLength(0, entities.MaxMessageLength)),
		validation.Field(&c.AccessLevel, validation.By(accessLevelString)),
	)
	if err != nil {
		return toValidationError(err)
	}
	if c.Message == nil && c.AccessLevel == nil && c.TeamID == nil {
		return pkgerrors.NewValidationError("nothing to update")
	}
	return nil
}

// ChangesAccess reports whether the command touches accessLevel or teamId
func (c UpdateItemCommand) ChangesAccess() bool {
	return c.AccessLevel != nil || c.TeamID != nil
}

// ResolveAccess computes the new level and team relative to the current
// item. A team without a level implies TEAM; a non-TEAM level drops the team.
func (c UpdateItemCommand) ResolveAccess(current *entities.Item) (valueobjects.AccessLevel, string, error) {
	level := current.AccessLevel()
	teamID := current.TeamID()

	if c.TeamID != nil {
		teamID = strings.TrimSpace(*c.TeamID)
		if c.AccessLevel == nil && teamID != "" {
			level = valueobjects.AccessTeam
		}
	}
	if c.AccessLevel != nil {
		parsed, err := valueobjects.ParseAccessLevel(*c.AccessLevel)
		if err != nil {
			return valueobjects.AccessLevel{}, "", pkgerrors.NewValidationError(err.Error())
		}
		level = parsed
		if !level.IsTeam() && c.TeamID == nil {
			teamID = ""
		}
	}

	if err := entities.ValidateAccessAssignment(level, teamID); err != nil {
		return valueobjects.AccessLevel{}, "", err
	}
	return level, teamID, nil
}

// DeleteItemCommand removes an item
type DeleteItemCommand struct {
	ItemID valueobjects.ItemID
	User   *entities.User
}

func (c DeleteItemCommand) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ItemID, validation.By(requireItemID)),
		validation.Field(&c.User, validation.By(requireUser)),
	)
	if err != nil {
		return toValidationError(err)
	}
	return nil
}

func requireItemID(value interface{}) error {
	if id, ok := value.(valueobjects.ItemID); !ok || id.IsZero() {
		return errors.New("is required")
	}
	return nil
}

func requireUser(value interface{}) error {
	if u, ok := value.(*entities.User); !ok || u == nil || u.ID() == "" {
		return errors.New("is required")
	}
	return nil
}

func notBlank(value interface{}) error {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return errors.New("cannot be blank")
		}
	case *string:
		if v != nil && strings.TrimSpace(*v) == "" {
			return errors.New("cannot be blank")
		}
	}
	return nil
}

func accessLevelString(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := valueobjects.ParseAccessLevel(s); err != nil {
		return errors.New("must be one of INDIVIDUAL, TEAM, PUBLIC")
	}
	return nil
}

// toValidationError converts ozzo field errors into a VALIDATION AppError
// carrying the per-field messages as details.
func toValidationError(err error) error {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.NewValidationError(err.Error())
	}
	details := make(map[string]interface{}, len(fieldErrs))
	for field, fe := range fieldErrs {
		details[field] = fe.Error()
	}
	return pkgerrors.NewValidationError(fieldErrs.Error()).WithDetails(details)
}
