package handlers

import (
	"net/http"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/api/httpx"
	"github.com/baharkarakas/h2credits-backend/internal/api/validate"
	"github.com/baharkarakas/h2credits-backend/internal/services"
	"github.com/shopspring/decimal"
)

type BidHandler struct {
	Bids    *services.BidService
	Trading *services.TradingService
	// DefaultExpiry applies when a bid names no expiry window.
	DefaultExpiry time.Duration
}

func NewBidHandler(bs *services.BidService, ts *services.TradingService, defaultExpiry time.Duration) *BidHandler {
	return &BidHandler{Bids: bs, Trading: ts, DefaultExpiry: defaultExpiry}
}

type placeBidReq struct {
	Price    decimal.Decimal `json:"bid_price"`
	Quantity decimal.Decimal `json:"quantity"`
	// ExpiryHours overrides the default expiry window.
	ExpiryHours *int64 `json:"expiry_hours,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

const maxBidExpiryHours = 24 * 365

func (h *BidHandler) Place(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req placeBidReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}
	expiry := h.DefaultExpiry
	if req.ExpiryHours != nil {
		if errs := validate.Collect(
			validate.MinInt("expiry_hours", *req.ExpiryHours, 1),
			validate.MaxInt("expiry_hours", *req.ExpiryHours, maxBidExpiryHours),
		); len(errs) > 0 {
			badRequest(w, errs)
			return
		}
		expiry = time.Duration(*req.ExpiryHours) * time.Hour
	}
	bid, err := h.Bids.PlaceBid(r.Context(), services.BidRequest{
		CreditID: id,
		BidderID: uid,
		Price:    req.Price,
		Quantity: req.Quantity,
		Expiry:   expiry,
		Notes:    req.Notes,
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, bid)
}

func (h *BidHandler) ListForCredit(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.Bids.ListForCredit(r.Context(), id, uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *BidHandler) Accept(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	txn, err := h.Trading.AcceptBid(r.Context(), id, uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txn)
}

func (h *BidHandler) Reject(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bid, err := h.Bids.RejectBid(r.Context(), id, uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bid)
}
