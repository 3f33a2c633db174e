package handlers

import (
	"net/http"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/api/httpx"
	"github.com/baharkarakas/h2credits-backend/internal/api/validate"
	"github.com/baharkarakas/h2credits-backend/internal/services"
	"github.com/shopspring/decimal"
)

type PartnershipHandler struct {
	Partnerships *services.PartnershipService
}

func NewPartnershipHandler(ps *services.PartnershipService) *PartnershipHandler {
	return &PartnershipHandler{Partnerships: ps}
}

type createPartnershipReq struct {
	CreditID          int64           `json:"credit_id"`
	PartnerID         int64           `json:"partner_id"`
	PartnershipType   string          `json:"partnership_type"`
	AllocatedQuantity decimal.Decimal `json:"allocated_quantity"`
	ReservedPrice     decimal.Decimal `json:"reserved_price"`
	StartDate         time.Time       `json:"start_date,omitempty"`
	EndDate           time.Time       `json:"end_date"`
}

func (h *PartnershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var req createPartnershipReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}
	if errs := validate.Collect(
		validate.MinInt("credit_id", req.CreditID, 1),
		validate.MinInt("partner_id", req.PartnerID, 1),
		validate.Required("partnership_type", req.PartnershipType),
	); len(errs) > 0 {
		badRequest(w, errs)
		return
	}
	p, err := h.Partnerships.Create(r.Context(), services.PartnershipInput{
		CreditID:      req.CreditID,
		OwnerID:       uid,
		PartnerID:     req.PartnerID,
		Type:          req.PartnershipType,
		Quantity:      req.AllocatedQuantity,
		ReservedPrice: req.ReservedPrice,
		Start:         req.StartDate,
		End:           req.EndDate,
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *PartnershipHandler) Activate(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Partnerships.Activate(r.Context(), id, uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *PartnershipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Partnerships.Cancel(r.Context(), id, uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
