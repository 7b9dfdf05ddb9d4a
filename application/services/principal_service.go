package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	domainservices "github.com/thismakesmehappy/NewApiTest-sub000/domain/services"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// Identity is what authentication established about the caller
type Identity struct {
	UserID   string
	Username string
	Email    string
	// Groups are identity provider groups, e.g. cognito:groups
	Groups []string
}

// PrincipalService turns a verified identity into the request's User.
// Role and team membership are looked up on every call.
type PrincipalService struct {
	authz    *domainservices.AuthorizationService
	teams    ports.TeamRepository
	profiles ports.UserProfileRepository
	logger   *zap.Logger
}

// NewPrincipalService creates a new principal service
func NewPrincipalService(
	authz *domainservices.AuthorizationService,
	teams ports.TeamRepository,
	profiles ports.UserProfileRepository,
	logger *zap.Logger,
) *PrincipalService {
	return &PrincipalService{
		authz:    authz,
		teams:    teams,
		profiles: profiles,
		logger:   logger,
	}
}

// Resolve builds the principal: the default USER from claims, raised to the
// highest of the group role and the stored profile role, with team ids and
// managed team ids taken from active teams.
func (s *PrincipalService) Resolve(ctx context.Context, id Identity) (*entities.User, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return nil, pkgerrors.NewUnauthorizedError("missing subject")
	}

	user := s.authz.CreateUserFromJWT(id.UserID, id.Username, id.Email)
	role := user.Role().Max(RoleFromGroups(id.Groups))

	if s.profiles != nil {
		profile, err := s.profiles.GetProfile(ctx, id.UserID)
		switch {
		case err == nil && profile != nil && !profile.Role.IsZero():
			role = role.Max(profile.Role)
		case err != nil && !pkgerrors.IsNotFound(err):
			return nil, pkgerrors.Wrap(err, "load user profile")
		}
	}
	user.SetRole(role)

	teams, err := s.teams.ListByMember(ctx, id.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load team memberships")
	}
	for _, team := range teams {
		if !team.IsActive() {
			continue
		}
		switch {
		case team.CanUserManage(id.UserID):
			user.ManageTeam(team.ID())
		case team.CanUserAccess(id.UserID):
			user.JoinTeam(team.ID())
		}
	}

	s.logger.Debug("Resolved principal",
		zap.String("userID", user.ID()),
		zap.String("role", user.Role().String()),
		zap.Strings("teams", user.TeamIDs()),
	)
	return user, nil
}

// SetRole stores the role of userID. Only ADMIN may assign roles; a nil
// actor is the operator CLI, which has direct table access anyway.
func (s *PrincipalService) SetRole(ctx context.Context, actor *entities.User, userID string, role valueobjects.Role) error {
	if actor != nil && !actor.IsAdmin() {
		return pkgerrors.NewForbiddenError("only administrators can assign roles")
	}
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	if role.IsZero() {
		return pkgerrors.NewValidationError("role is required")
	}
	if s.profiles == nil {
		return pkgerrors.NewUnavailableError("user profiles")
	}

	profile := &entities.UserProfile{UserID: userID}
	existing, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case err == nil && existing != nil:
		profile = existing
	case err != nil && !pkgerrors.IsNotFound(err):
		return pkgerrors.Wrap(err, "load user profile")
	}
	profile.Role = role
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return pkgerrors.Wrap(err, "save user profile")
	}
	s.logger.Info("Role assigned", zap.String("userID", userID), zap.String("role", role.String()))
	return nil
}

// RoleFromGroups maps identity provider groups to the highest matching role.
// Unknown groups are ignored.
func RoleFromGroups(groups []string) valueobjects.Role {
	role := valueobjects.RoleUser
	for _, g := range groups {
		normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(g)), "-", "_")
		if parsed, err := valueobjects.ParseRole(normalized); err == nil {
			role = role.Max(parsed)
		}
	}
	return role
}
