package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/db"
	"github.com/baharkarakas/h2credits-backend/internal/logger"
	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/baharkarakas/h2credits-backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to TEST_DATABASE_URL, migrates, and empties every
// table. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, url, 8)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE notifications, partnership_credits, credit_certifications,
		trading_bids, transactions, credits, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return NewStore(pool)
}

func seedCredit(t *testing.T, s *Store, forSale bool) (models.User, models.Credit) {
	t.Helper()
	ctx := context.Background()
	var u models.User
	var c models.Credit
	require.NoError(t, s.WithTx(ctx, func(tx repo.Tx) error {
		u = models.User{Username: "owner", WalletAddress: "0xowner", Role: models.RoleUser, VerificationLevel: models.LevelBasic}
		if err := tx.Users().Create(ctx, &u); err != nil {
			return err
		}
		exp := time.Now().Add(time.Hour).UTC()
		c = models.Credit{
			OwnerID: u.ID, ProjectName: "P", ProjectType: "green", ProjectCountry: "DE", VintageYear: 2024,
			CertificationLevel: models.CertStandard,
			Quantity:           decimal.NewFromInt(10), Price: decimal.NewFromInt(5), MinBidPrice: decimal.RequireFromString("4.5"),
			ForSale: forSale, IssuedAt: time.Now().UTC(), ExpiresAt: &exp,
		}
		return tx.Credits().Create(ctx, &c)
	}))
	return u, c
}

func TestCreditRoundTripAndTokenIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, c := seedCredit(t, s, true)
	assert.Equal(t, int64(1), c.TokenID)

	require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
		got, err := tx.Credits().GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.OwnerID)
		assert.True(t, got.MinBidPrice.Equal(decimal.RequireFromString("4.5")))
		assert.True(t, got.ForSale)

		_, err = tx.Credits().GetByID(ctx, 999)
		assert.ErrorIs(t, err, repo.ErrNotFound)
		return nil
	}))

	var second models.Credit
	require.NoError(t, s.WithTx(ctx, func(tx repo.Tx) error {
		second = c
		second.ID = 0
		return tx.Credits().Create(ctx, &second)
	}))
	assert.Equal(t, int64(2), second.TokenID)
}

func TestCheckConstraintsMapToErrConstraint(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, c := seedCredit(t, s, true)

	err := s.WithTx(ctx, func(tx repo.Tx) error {
		c.Retired = true
		return tx.Credits().Update(ctx, c)
	})
	assert.ErrorIs(t, err, repo.ErrConstraint)
}

func TestDuplicateWalletIsConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedCredit(t, s, false)

	err := s.WithTx(ctx, func(tx repo.Tx) error {
		return tx.Users().Create(ctx, &models.User{Username: "dup", WalletAddress: "0xowner", Role: models.RoleUser, VerificationLevel: models.LevelBasic})
	})
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestRollbackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, c := seedCredit(t, s, true)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx repo.Tx) error {
		c.ForSale = false
		if err := tx.Credits().Update(ctx, c); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
		got, err := tx.Credits().GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, got.ForSale)
		assert.Equal(t, u.ID, got.OwnerID)
		return nil
	}))
}

// Two writers flip the same credit off the market; the row lock makes the
// second one see the first one's commit.
func TestGetForUpdateSerialisesWriters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, c := seedCredit(t, s, true)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(tx repo.Tx) error {
				cur, err := tx.Credits().GetForUpdate(ctx, c.ID)
				if err != nil {
					return err
				}
				if !cur.ForSale {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
				cur.ForSale = false
				if err := tx.Credits().Update(ctx, cur); err != nil {
					return err
				}
				mu.Lock()
				wins++
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestPanicInUnitOfWorkReleasesLocks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, c := seedCredit(t, s, true)

	func() {
		defer func() { assert.NotNil(t, recover()) }()
		_ = s.WithTx(ctx, func(tx repo.Tx) error {
			if _, err := tx.Credits().GetForUpdate(ctx, c.ID); err != nil {
				return err
			}
			panic("mid-transaction")
		})
	}()

	lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := s.WithTx(lockCtx, func(tx repo.Tx) error {
		_, err := tx.Credits().GetForUpdate(lockCtx, c.ID)
		return err
	})
	assert.NoError(t, err)
}

func listedCredit(t *testing.T, s *Store, ownerID int64) models.Credit {
	t.Helper()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).UTC()
	c := models.Credit{
		OwnerID: ownerID, ProjectName: "P", ProjectType: "green", ProjectCountry: "DE", VintageYear: 2024,
		CertificationLevel: models.CertStandard,
		Quantity:           decimal.NewFromInt(1), Price: decimal.NewFromInt(2), MinBidPrice: decimal.RequireFromString("1.8"),
		ForSale: true, IssuedAt: time.Now().UTC(), ExpiresAt: &exp,
	}
	require.NoError(t, s.WithTx(ctx, func(tx repo.Tx) error { return tx.Credits().Create(ctx, &c) }))
	return c
}

// Two users buy from each other at the same time. Both trades touch both
// user rows and must not deadlock.
func TestOppositePurchasesBetweenSameUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a, _ := seedCredit(t, s, false)
	b := models.User{Username: "other", WalletAddress: "0xother", Role: models.RoleUser, VerificationLevel: models.LevelBasic}
	require.NoError(t, s.WithTx(ctx, func(tx repo.Tx) error { return tx.Users().Create(ctx, &b) }))

	trading := services.NewTradingService(services.Deps{Store: s, Timeout: 10 * time.Second, Log: logger.Discard()})
	for round := 0; round < 20; round++ {
		fromA := listedCredit(t, s, a.ID)
		fromB := listedCredit(t, s, b.ID)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = trading.Purchase(ctx, fromA.ID, b.ID)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = trading.Purchase(ctx, fromB.ID, a.ID)
		}()
		wg.Wait()
		require.NoError(t, errs[0], "round %d", round)
		require.NoError(t, errs[1], "round %d", round)
	}

	var gotA, gotB models.User
	require.NoError(t, s.View(ctx, func(tx repo.Tx) error {
		var err error
		if gotA, err = tx.Users().GetByID(ctx, a.ID); err != nil {
			return err
		}
		gotB, err = tx.Users().GetByID(ctx, b.ID)
		return err
	}))
	assert.True(t, gotA.TradingVolume.Equal(decimal.NewFromInt(80)), gotA.TradingVolume.String())
	assert.True(t, gotB.TradingVolume.Equal(decimal.NewFromInt(80)), gotB.TradingVolume.String())
}
