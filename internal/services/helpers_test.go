package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/logger"
	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/baharkarakas/h2credits-backend/internal/repository/memory"
	"github.com/baharkarakas/h2credits-backend/internal/worker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source shared by the store and the services.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type env struct {
	store        *memory.Store
	clock        *clock
	users        *UserService
	credits      *CreditService
	listing      *ListingService
	trading      *TradingService
	bids         *BidService
	partnerships *PartnershipService
	notes        *NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore().WithClock(clk.Now)
	pool := worker.NewPool(4, 64)
	t.Cleanup(pool.Stop)

	d := Deps{
		Store:   store,
		Pool:    pool,
		Timeout: 5 * time.Second,
		Log:     logger.Discard(),
		Now:     clk.Now,
	}
	return &env{
		store:        store,
		clock:        clk,
		users:        NewUserService(d),
		credits:      NewCreditService(d, 0),
		listing:      NewListingService(d),
		trading:      NewTradingService(d),
		bids:         NewBidService(d),
		partnerships: NewPartnershipService(d),
		notes:        NewNotificationService(d),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (e *env) user(t *testing.T, wallet string) models.User {
	t.Helper()
	u, created, err := e.users.ConnectWallet(context.Background(), wallet, "user-"+wallet)
	require.NoError(t, err)
	require.True(t, created)
	return u
}

// credit issues a credit to owner, listed at price when price is non-empty.
func (e *env) credit(t *testing.T, owner models.User, quantity, price string, forSale bool) models.Credit {
	t.Helper()
	c, err := e.credits.Create(context.Background(), owner.ID, CreditInput{
		ProjectName:    "Electrolyser North",
		ProjectType:    "green_hydrogen",
		ProjectCountry: "NO",
		VintageYear:    2024,
		Certification:  "CertifHy",
		Quantity:       dec(quantity),
		Price:          dec(price),
		ForSale:        forSale,
	})
	require.NoError(t, err)
	return c
}

func (e *env) mustCredit(t *testing.T, id int64) models.Credit {
	t.Helper()
	c, err := e.credits.Get(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (e *env) mustUser(t *testing.T, id int64) models.User {
	t.Helper()
	u, err := e.users.Get(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *env) notifications(t *testing.T, userID int64) []models.Notification {
	t.Helper()
	out, err := e.notes.List(context.Background(), userID, false, 100)
	require.NoError(t, err)
	return out
}

func titles(ns []models.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Title)
	}
	return out
}

// occupy parks one pool worker until the returned func is called.
func occupy(t *testing.T, p *worker.Pool) func() {
	t.Helper()
	running := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), 0, func(context.Context) error {
			close(running)
			<-release
			return nil
		})
	}()
	<-running
	return func() { close(release) }
}
