package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest/middleware"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/common"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/utils"
)

// TeamHandler handles team reads and membership changes
type TeamHandler struct {
	teams  *services.TeamService
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func NewTeamHandler(teams *services.TeamService, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, errors: errHandler, logger: logger}
}

type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

type AddMemberRequest struct {
	UserID string `json:"userId" validate:"required,max=128"`
	Admin  bool   `json:"admin,omitempty"`
}

type ListTeamsResponse struct {
	Teams []TeamResponse `json:"teams"`
}

// ListTeams handles GET /teams
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	teams, err := h.teams.ListMine(r.Context(), user)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	out := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamResponse(t))
	}
	common.RespondList(w, r, ListTeamsResponse{Teams: out}, len(out))
}

// CreateTeam handles POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req CreateTeamRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	team, err := h.teams.Create(r.Context(), user, req.Name, req.Description)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/teams/"+team.ID())
	common.RespondJSON(w, r, http.StatusCreated, toTeamResponse(team))
}

// GetTeam handles GET /teams/{teamID}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	team, err := h.teams.Get(r.Context(), user, chi.URLParam(r, "teamID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, toTeamResponse(team))
}

// AddMember handles POST /teams/{teamID}/members
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.mutate(w, r, func(user *entities.User, teamID string) (*entities.Team, error) {
		return h.teams.AddMember(r.Context(), user, teamID, req.UserID, req.Admin)
	})
}

// RemoveMember handles DELETE /teams/{teamID}/members/{userID}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(user *entities.User, teamID string) (*entities.Team, error) {
		return h.teams.RemoveMember(r.Context(), user, teamID, chi.URLParam(r, "userID"))
	})
}

// PromoteAdmin handles PUT /teams/{teamID}/admins/{userID}
func (h *TeamHandler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(user *entities.User, teamID string) (*entities.Team, error) {
		return h.teams.PromoteAdmin(r.Context(), user, teamID, chi.URLParam(r, "userID"))
	})
}

func (h *TeamHandler) mutate(w http.ResponseWriter, r *http.Request, apply func(*entities.User, string) (*entities.Team, error)) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	team, err := apply(user, chi.URLParam(r, "teamID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, toTeamResponse(team))
}
