package handlers

import (
	"net/http"

	"github.com/baharkarakas/h2credits-backend/internal/api/httpx"
	"github.com/baharkarakas/h2credits-backend/internal/api/validate"
	"github.com/baharkarakas/h2credits-backend/internal/auth"
	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/baharkarakas/h2credits-backend/internal/services"
)

type AuthHandler struct {
	Users *services.UserService
	TM    *auth.TokenManager
}

func NewAuthHandler(us *services.UserService, tm *auth.TokenManager) *AuthHandler {
	return &AuthHandler{Users: us, TM: tm}
}

type connectReq struct {
	WalletAddress string `json:"wallet_address"`
	Username      string `json:"username,omitempty"`
}

type sessionResp struct {
	User    models.User `json:"user"`
	Created bool        `json:"created"`
	auth.Pair
}

func (h *AuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}
	if errs := validate.Collect(
		validate.Required("wallet_address", req.WalletAddress),
		validate.MaxLen("wallet_address", req.WalletAddress, models.MaxWalletLen),
		validate.MaxLen("username", req.Username, 50),
	); len(errs) > 0 {
		badRequest(w, errs)
		return
	}

	u, created, err := h.Users.ConnectWallet(r.Context(), req.WalletAddress, req.Username)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	pair, err := h.TM.GeneratePair(u.ID, u.WalletAddress, u.Role)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "token_error", "token generation failed", nil)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, sessionResp{User: u, Created: created, Pair: pair})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh trades a refresh token for a new pair. The role is re-read so that
// promotions take effect without reconnecting.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "refresh_token required", nil)
		return
	}
	claims, isRefresh, err := h.TM.ParseAny(req.RefreshToken)
	if err != nil || !isRefresh {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	u, err := h.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	pair, err := h.TM.GeneratePair(u.ID, u.WalletAddress, u.Role)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "token_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}
