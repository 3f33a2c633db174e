package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PartnershipStatus string

const (
	PartnershipPending   PartnershipStatus = "pending"
	PartnershipActive    PartnershipStatus = "active"
	PartnershipExpired   PartnershipStatus = "expired"
	PartnershipCancelled PartnershipStatus = "cancelled"
)

type PartnershipCredit struct {
	ID                int64             `json:"id"`
	CreditID          int64             `json:"credit_id"`
	PartnerID         int64             `json:"partner_id"`
	PartnershipType   string            `json:"partnership_type"`
	AllocatedQuantity decimal.Decimal   `json:"allocated_quantity"`
	ReservedPrice     decimal.Decimal   `json:"reserved_price"`
	Status            PartnershipStatus `json:"status"`
	StartDate         time.Time         `json:"start_date"`
	EndDate           time.Time         `json:"end_date"`
	CreatedAt         time.Time         `json:"created_at"`
}

// EffectiveStatus applies lazy expiry to open partnerships.
func (p PartnershipCredit) EffectiveStatus(now time.Time) PartnershipStatus {
	if (p.Status == PartnershipPending || p.Status == PartnershipActive) && now.After(p.EndDate) {
		return PartnershipExpired
	}
	return p.Status
}

// Open reports whether the allocation still reserves quantity at now.
func (p PartnershipCredit) Open(now time.Time) bool {
	s := p.EffectiveStatus(now)
	return s == PartnershipPending || s == PartnershipActive
}
