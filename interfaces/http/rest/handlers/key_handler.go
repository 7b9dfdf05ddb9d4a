package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest/middleware"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/common"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/utils"
)

// KeyHandler manages the caller's developer keys
type KeyHandler struct {
	keys   *services.DeveloperKeyService
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func NewKeyHandler(keys *services.DeveloperKeyService, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *KeyHandler {
	return &KeyHandler{keys: keys, errors: errHandler, logger: logger}
}

type CreateKeyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type ListKeysResponse struct {
	Keys []KeyResponse `json:"keys"`
}

// ListKeys handles GET /keys
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	keys, err := h.keys.List(r.Context(), user)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	out := make([]KeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, toKeyResponse(k))
	}
	common.RespondList(w, r, ListKeysResponse{Keys: out}, len(out))
}

// CreateKey handles POST /keys. The plaintext key is in this response only.
func (h *KeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req CreateKeyRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	key, plaintext, err := h.keys.Create(r.Context(), user, req.Name)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	resp := toKeyResponse(key)
	resp.Key = plaintext
	w.Header().Set("Cache-Control", "no-store")
	common.RespondJSON(w, r, http.StatusCreated, resp)
}

// RevokeKey handles DELETE /keys/{keyID}. ADMIN may revoke another user's
// key with ?owner=<userID>.
func (h *KeyHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = user.ID()
	}
	if err := h.keys.Revoke(r.Context(), user, owner, chi.URLParam(r, "keyID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
