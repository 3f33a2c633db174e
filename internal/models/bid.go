package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	BidActive   BidStatus = "active"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
	BidExpired  BidStatus = "expired"
)

type TradingBid struct {
	ID         int64           `json:"id"`
	CreditID   int64           `json:"credit_id"`
	BidderID   int64           `json:"bidder_id"`
	Price      decimal.Decimal `json:"bid_price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Status     BidStatus       `json:"status"`
	ExpiresAt  time.Time       `json:"expires_at"`
	CreatedAt  time.Time       `json:"created_at"`
	AcceptedAt *time.Time      `json:"accepted_at,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// EffectiveStatus applies lazy expiry: a stored active bid whose expiry has
// passed is expired.
func (b TradingBid) EffectiveStatus(now time.Time) BidStatus {
	if b.Status == BidActive && now.After(b.ExpiresAt) {
		return BidExpired
	}
	return b.Status
}

// IsActive reports whether the bid may still be accepted at now.
func (b TradingBid) IsActive(now time.Time) bool {
	return b.EffectiveStatus(now) == BidActive
}
