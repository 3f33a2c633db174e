package handlers

import (
	"fmt"
	"net/http"

	"github.com/baharkarakas/h2credits-backend/internal/api/httpx"
	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/baharkarakas/h2credits-backend/internal/services"
)

type AdminHandler struct {
	Users *services.UserService
}

func NewAdminHandler(us *services.UserService) *AdminHandler { return &AdminHandler{Users: us} }

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	out, err := h.Users.List(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type verificationReq struct {
	Verified bool                     `json:"is_verified"`
	Level    models.VerificationLevel `json:"verification_level"`
}

func (h *AdminHandler) SetVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req verificationReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}
	if !req.Level.Valid() {
		badBody(w, fmt.Errorf("unknown verification_level %q", req.Level))
		return
	}
	u, err := h.Users.SetVerification(r.Context(), id, req.Verified, req.Level)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}
