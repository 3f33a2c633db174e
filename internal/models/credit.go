package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CertificationLevel string

const (
	CertStandard  CertificationLevel = "standard"
	CertPremium   CertificationLevel = "premium"
	CertVerified  CertificationLevel = "verified"
	CertCertified CertificationLevel = "certified"
)

// MinBidRatio is the share of the asking price used as the default minimum bid.
var MinBidRatio = decimal.New(9, -1)

// DefaultMinBid derives the minimum acceptable bid from an asking price.
func DefaultMinBid(price decimal.Decimal) decimal.Decimal {
	return price.Mul(MinBidRatio)
}

// Credit is a tradeable hydrogen offset certificate with a single owner.
type Credit struct {
	ID                 int64              `json:"id"`
	TokenID            int64              `json:"token_id"`
	OwnerID            int64              `json:"owner_id"`
	ProjectName        string             `json:"project_name"`
	ProjectType        string             `json:"project_type"`
	ProjectCountry     string             `json:"project_country"`
	VintageYear        int                `json:"vintage_year"`
	Certification      string             `json:"certification"`
	CertificationLevel CertificationLevel `json:"certification_level"`
	Quantity           decimal.Decimal    `json:"quantity"`
	Price              decimal.Decimal    `json:"price"`
	MinBidPrice        decimal.Decimal    `json:"min_bid_price"`
	ForSale            bool               `json:"for_sale"`
	Retired            bool               `json:"retired"`
	Partnership        bool               `json:"partnership"`
	IssuedAt           time.Time          `json:"issued_at"`
	RetiredAt          *time.Time         `json:"retired_at,omitempty"`
	ExpiresAt          *time.Time         `json:"expires_at,omitempty"`
}

func (c Credit) Available() bool { return c.ForSale && !c.Retired }

type MarketStats struct {
	CreditsForSale int64           `json:"credits_for_sale"`
	CreditsRetired int64           `json:"credits_retired"`
	ProjectCount   int64           `json:"project_count"`
	AveragePrice   decimal.Decimal `json:"average_price"`
}

type Portfolio struct {
	UserID          int64           `json:"user_id"`
	CreditsOwned    int             `json:"credits_owned"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	NetPosition     decimal.Decimal `json:"net_position"`
	PortfolioValue  decimal.Decimal `json:"portfolio_value"`
}
