package handlers

import (
	"net/http"

	"github.com/baharkarakas/h2credits-backend/internal/api/httpx"
	"github.com/baharkarakas/h2credits-backend/internal/api/validate"
	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/baharkarakas/h2credits-backend/internal/services"
	"github.com/shopspring/decimal"
)

type CreditHandler struct {
	Credits *services.CreditService
	Listing *services.ListingService
	Trading *services.TradingService
}

func NewCreditHandler(cs *services.CreditService, ls *services.ListingService, ts *services.TradingService) *CreditHandler {
	return &CreditHandler{Credits: cs, Listing: ls, Trading: ts}
}

func (h *CreditHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	out, err := h.Credits.ListAvailable(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *CreditHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.Credits.Get(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

type createCreditReq struct {
	ProjectName        string                    `json:"project_name"`
	ProjectType        string                    `json:"project_type"`
	ProjectCountry     string                    `json:"project_country"`
	VintageYear        int                       `json:"vintage_year"`
	Certification      string                    `json:"certification"`
	CertificationLevel models.CertificationLevel `json:"certification_level,omitempty"`
	Quantity           decimal.Decimal           `json:"quantity"`
	Price              decimal.Decimal           `json:"price"`
	MinBidPrice        decimal.Decimal           `json:"min_bid_price,omitempty"`
	ForSale            bool                      `json:"for_sale"`
	Partnership        bool                      `json:"partnership"`
}

func (h *CreditHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var req createCreditReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}
	if errs := validate.Collect(
		validate.Required("project_name", req.ProjectName),
		validate.Required("project_type", req.ProjectType),
		validate.Required("project_country", req.ProjectCountry),
		validate.Positive("quantity", req.Quantity),
		validate.Positive("price", req.Price),
	); len(errs) > 0 {
		badRequest(w, errs)
		return
	}
	c, err := h.Credits.Create(r.Context(), uid, services.CreditInput{
		ProjectName:        req.ProjectName,
		ProjectType:        req.ProjectType,
		ProjectCountry:     req.ProjectCountry,
		VintageYear:        req.VintageYear,
		Certification:      req.Certification,
		CertificationLevel: req.CertificationLevel,
		Quantity:           req.Quantity,
		Price:              req.Price,
		MinBidPrice:        req.MinBidPrice,
		ForSale:            req.ForSale,
		Partnership:        req.Partnership,
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *CreditHandler) Buy(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	txn, err := h.Trading.Purchase(r.Context(), id, uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, txn)
}

type listReq struct {
	Price decimal.Decimal `json:"price"`
}

func (h *CreditHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req listReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}
	c, err := h.Listing.ListForSale(r.Context(), id, uid, req.Price)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *CreditHandler) Unlist(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.Listing.Unlist(r.Context(), id, uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *CreditHandler) Retire(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.Listing.Retire(r.Context(), id, uid)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *CreditHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.Credits.History(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type certificationReq struct {
	CertifierName     string                   `json:"certifier_name"`
	Type              models.CertificationType `json:"certification_type"`
	CertificateNumber string                   `json:"certificate_number"`
}

func (h *CreditHandler) AddCertification(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req certificationReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}
	if errs := validate.Collect(
		validate.Required("certifier_name", req.CertifierName),
		validate.Required("certificate_number", req.CertificateNumber),
	); len(errs) > 0 {
		badRequest(w, errs)
		return
	}
	cert, err := h.Credits.AddCertification(r.Context(), services.CertificationInput{
		CreditID:          id,
		OwnerID:           uid,
		CertifierName:     req.CertifierName,
		Type:              req.Type,
		CertificateNumber: req.CertificateNumber,
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, cert)
}

func (h *CreditHandler) Certifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.Credits.Certifications(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *CreditHandler) MarketStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Credits.Stats(r.Context())
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}
