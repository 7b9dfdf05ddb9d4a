package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest/middleware"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/common"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/utils"
)

// UserHandler serves the caller's principal and admin role assignment
type UserHandler struct {
	principals *services.PrincipalService
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func NewUserHandler(principals *services.PrincipalService, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *UserHandler {
	return &UserHandler{principals: principals, errors: errHandler, logger: logger}
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// Me handles GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp := MeResponse{
		UserID:         user.ID(),
		Username:       user.Username(),
		Email:          user.Email(),
		Role:           user.Role().String(),
		TeamIDs:        user.TeamIDs(),
		ManagedTeamIDs: user.ManagedTeamIDs(),
	}
	if uc, err := auth.GetUserFromContext(r.Context()); err == nil {
		resp.AuthMethod = uc.Method
	}
	common.RespondJSON(w, r, http.StatusOK, resp)
}

// SetRole handles PUT /admin/users/{userID}/role
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req SetRoleRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	role, err := valueobjects.ParseRole(req.Role)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	userID := chi.URLParam(r, "userID")
	if err := h.principals.SetRole(r.Context(), user, userID, role); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, map[string]string{"userId": userID, "role": role.String()})
}
