package repository

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by every lookup or update that matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique key collision.
	ErrConflict = errors.New("conflict")
	// ErrConstraint reports a rejected check constraint.
	ErrConstraint = errors.New("constraint violation")
)

type Users interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByWallet(ctx context.Context, wallet string) (models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	// AddTotals increments the cumulative offset and trading volume counters.
	AddTotals(ctx context.Context, id int64, offsets, volume decimal.Decimal) error
	SetVerification(ctx context.Context, id int64, verified bool, level models.VerificationLevel) error
}

type Credits interface {
	// Create assigns ID and the next token id.
	Create(ctx context.Context, c *models.Credit) error
	GetByID(ctx context.Context, id int64) (models.Credit, error)
	// GetForUpdate reads the credit and holds its row lock until the unit of
	// work ends.
	GetForUpdate(ctx context.Context, id int64) (models.Credit, error)
	// Update persists the mutable fields: owner, price, min bid, flags,
	// retirement time and certification level.
	Update(ctx context.Context, c models.Credit) error
	ListForSale(ctx context.Context, limit, offset int) ([]models.Credit, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Credit, error)
	Stats(ctx context.Context) (models.MarketStats, error)
}

type Transactions interface {
	Create(ctx context.Context, t *models.Transaction) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error)
	ListByCredit(ctx context.Context, creditID int64) ([]models.Transaction, error)
}

type Bids interface {
	Create(ctx context.Context, b *models.TradingBid) error
	GetByID(ctx context.Context, id int64) (models.TradingBid, error)
	GetForUpdate(ctx context.Context, id int64) (models.TradingBid, error)
	UpdateStatus(ctx context.Context, id int64, status models.BidStatus, acceptedAt *time.Time) error
	ListByCredit(ctx context.Context, creditID int64) ([]models.TradingBid, error)
	ListByBidder(ctx context.Context, bidderID int64) ([]models.TradingBid, error)
	// RejectOpen marks every stored-active bid on the credit rejected, except
	// exceptID, and returns the affected bids.
	RejectOpen(ctx context.Context, creditID, exceptID int64) ([]models.TradingBid, error)
}

type Certifications interface {
	Create(ctx context.Context, c *models.CreditCertification) error
	ListByCredit(ctx context.Context, creditID int64) ([]models.CreditCertification, error)
}

type Partnerships interface {
	Create(ctx context.Context, p *models.PartnershipCredit) error
	GetByID(ctx context.Context, id int64) (models.PartnershipCredit, error)
	GetForUpdate(ctx context.Context, id int64) (models.PartnershipCredit, error)
	UpdateStatus(ctx context.Context, id int64, status models.PartnershipStatus) error
	ListByCredit(ctx context.Context, creditID int64) ([]models.PartnershipCredit, error)
	ListByPartner(ctx context.Context, partnerID int64) ([]models.PartnershipCredit, error)
}

type Notifications interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

// Tx is the set of repositories bound to one unit of work.
type Tx interface {
	Users() Users
	Credits() Credits
	Transactions() Transactions
	Bids() Bids
	Certifications() Certifications
	Partnerships() Partnerships
	Notifications() Notifications
}

// Store owns all persisted entities. WithTx commits every mutation made by fn
// together, or none of them when fn or the commit fails. View runs reads
// without a write transaction.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}
