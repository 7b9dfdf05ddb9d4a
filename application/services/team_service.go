package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	domainservices "github.com/thismakesmehappy/NewApiTest-sub000/domain/services"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// TeamService handles team reads and membership changes
type TeamService struct {
	teams     ports.TeamRepository
	authz     *domainservices.AuthorizationService
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewTeamService creates a new team service. publisher may be nil.
func NewTeamService(
	teams ports.TeamRepository,
	authz *domainservices.AuthorizationService,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *TeamService {
	return &TeamService{
		teams:     teams,
		authz:     authz,
		publisher: publisher,
		logger:    logger,
	}
}

// Get returns a team the user may view. Teams the user cannot see are
// reported as FORBIDDEN once they are known to exist.
func (s *TeamService) Get(ctx context.Context, user *entities.User, teamID string) (*entities.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanUserViewTeam(user, team) {
		return nil, pkgerrors.NewForbiddenError("you are not a member of this team")
	}
	return team, nil
}

// ListMine returns the active teams of the user; ADMIN sees every team
func (s *TeamService) ListMine(ctx context.Context, user *entities.User) ([]*entities.Team, error) {
	if user == nil {
		return nil, pkgerrors.NewUnauthorizedError("")
	}

	var (
		teams []*entities.Team
		err   error
	)
	if user.IsAdmin() {
		teams, err = s.teams.ListAll(ctx)
	} else {
		teams, err = s.teams.ListByMember(ctx, user.ID())
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list teams")
	}

	out := teams[:0]
	for _, t := range teams {
		if t.IsActive() || user.IsAdmin() {
			out = append(out, t)
		}
	}
	return out, nil
}

// Create makes the caller the owner of a new team
func (s *TeamService) Create(ctx context.Context, user *entities.User, name, description string) (*entities.Team, error) {
	if user == nil {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	team, err := entities.NewTeam(name, description, user.ID())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, team); err != nil {
		return nil, err
	}
	s.logger.Info("Team created", zap.String("teamID", team.ID()), zap.String("ownerID", user.ID()))
	return team, nil
}

// AddMember adds userID as a plain member, or as an admin when asAdmin is set
func (s *TeamService) AddMember(ctx context.Context, user *entities.User, teamID, userID string, asAdmin bool) (*entities.Team, error) {
	return s.mutate(ctx, user, teamID, func(team *entities.Team) error {
		if err := team.AddMember(userID); err != nil {
			return err
		}
		if asAdmin {
			return team.PromoteAdmin(userID)
		}
		return nil
	})
}

// RemoveMember drops a member or admin from the team
func (s *TeamService) RemoveMember(ctx context.Context, user *entities.User, teamID, userID string) (*entities.Team, error) {
	return s.mutate(ctx, user, teamID, func(team *entities.Team) error {
		return team.RemoveMember(userID)
	})
}

// PromoteAdmin turns an existing member into a team admin
func (s *TeamService) PromoteAdmin(ctx context.Context, user *entities.User, teamID, userID string) (*entities.Team, error) {
	return s.mutate(ctx, user, teamID, func(team *entities.Team) error {
		return team.PromoteAdmin(userID)
	})
}

func (s *TeamService) mutate(ctx context.Context, user *entities.User, teamID string, apply func(*entities.Team) error) (*entities.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanUserManageTeam(user, team) {
		return nil, pkgerrors.NewForbiddenError("only team owners and admins can manage members")
	}
	if !team.IsActive() {
		return nil, pkgerrors.NewConflictError("team is inactive")
	}
	if err := apply(team); err != nil {
		return nil, err
	}
	if err := s.save(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) save(ctx context.Context, team *entities.Team) error {
	if err := s.teams.Save(ctx, team); err != nil {
		return pkgerrors.Wrap(err, "save team")
	}
	if s.publisher != nil {
		if evts := team.GetUncommittedEvents(); len(evts) > 0 {
			if err := s.publisher.PublishBatch(ctx, evts); err != nil {
				// the write already happened; losing the notification is logged only
				s.logger.Warn("Failed to publish team events", zap.String("teamID", team.ID()), zap.Error(err))
			}
		}
	}
	team.MarkEventsAsCommitted()
	return nil
}
