// Package memory is a process-local ledger store. Units of work run one at a
// time against a private copy of the state, which replaces the shared state
// only when fn succeeds. It backs unit tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
)

type state struct {
	seq            map[string]int64
	users          map[int64]models.User
	credits        map[int64]models.Credit
	transactions   map[int64]models.Transaction
	bids           map[int64]models.TradingBid
	certifications map[int64]models.CreditCertification
	partnerships   map[int64]models.PartnershipCredit
	notifications  map[int64]models.Notification
}

func newState() *state {
	return &state{
		seq:            map[string]int64{},
		users:          map[int64]models.User{},
		credits:        map[int64]models.Credit{},
		transactions:   map[int64]models.Transaction{},
		bids:           map[int64]models.TradingBid{},
		certifications: map[int64]models.CreditCertification{},
		partnerships:   map[int64]models.PartnershipCredit{},
		notifications:  map[int64]models.Notification{},
	}
}

func (s *state) clone() *state {
	return &state{
		seq:            maps.Clone(s.seq),
		users:          maps.Clone(s.users),
		credits:        maps.Clone(s.credits),
		transactions:   maps.Clone(s.transactions),
		bids:           maps.Clone(s.bids),
		certifications: maps.Clone(s.certifications),
		partnerships:   maps.Clone(s.partnerships),
		notifications:  maps.Clone(s.notifications),
	}
}

func (s *state) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time

	// FailCommit, when set, is consulted before a unit of work is published
	// and aborts it with the returned error.
	FailCommit func() error
}

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithClock overrides the clock used for created/issued timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(repo.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(&view{st: work, now: s.now}); err != nil {
		return err
	}
	if s.FailCommit != nil {
		if err := s.FailCommit(); err != nil {
			return err
		}
	}
	s.st = work
	return nil
}

func (s *Store) View(ctx context.Context, fn func(repo.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&view{st: s.st, now: s.now})
}

type view struct {
	st  *state
	now func() time.Time
}

func (v *view) Users() repo.Users                   { return usersRepo{v} }
func (v *view) Credits() repo.Credits               { return creditsRepo{v} }
func (v *view) Transactions() repo.Transactions     { return transactionsRepo{v} }
func (v *view) Bids() repo.Bids                     { return bidsRepo{v} }
func (v *view) Certifications() repo.Certifications { return certificationsRepo{v} }
func (v *view) Partnerships() repo.Partnerships     { return partnershipsRepo{v} }
func (v *view) Notifications() repo.Notifications   { return notificationsRepo{v} }
