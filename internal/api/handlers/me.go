package handlers

import (
	"net/http"
	"strconv"

	"github.com/baharkarakas/h2credits-backend/internal/api/httpx"
	"github.com/baharkarakas/h2credits-backend/internal/services"
)

type MeHandler struct {
	users         *services.UserService
	credits       *services.CreditService
	bids          *services.BidService
	partnerships  *services.PartnershipService
	notifications *services.NotificationService
}

func NewMeHandler(us *services.UserService, cs *services.CreditService, bs *services.BidService,
	ps *services.PartnershipService, ns *services.NotificationService) *MeHandler {
	return &MeHandler{users: us, credits: cs, bids: bs, partnerships: ps, notifications: ns}
}

func (h *MeHandler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *MeHandler) Credits(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.credits.ListOwned(r.Context(), uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *MeHandler) Bids(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.bids.ListForBidder(r.Context(), uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *MeHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	limit, offset := page(r)
	out, err := h.credits.Transactions(r.Context(), uid, limit, offset)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *MeHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	p, err := h.credits.Portfolio(r.Context(), uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *MeHandler) Partnerships(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.partnerships.ListForPartner(r.Context(), uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Notifications accepts ?unread=true and ?limit=N.
func (h *MeHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.notifications.List(r.Context(), uid, unread, limit)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *MeHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id, uid); err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
