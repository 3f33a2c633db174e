package postgres

import (
	"context"
	"errors"
	"fmt"

	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repositories struct {
	users          *usersRepo
	credits        *creditsRepo
	transactions   *transactionsRepo
	bids           *bidsRepo
	certifications *certificationsRepo
	partnerships   *partnershipsRepo
	notifications  *notificationsRepo
}

func newRepositories(q querier) *Repositories {
	return &Repositories{
		users:          &usersRepo{q},
		credits:        &creditsRepo{q},
		transactions:   &transactionsRepo{q},
		bids:           &bidsRepo{q},
		certifications: &certificationsRepo{q},
		partnerships:   &partnershipsRepo{q},
		notifications:  &notificationsRepo{q},
	}
}

func (r *Repositories) Users() repo.Users                   { return r.users }
func (r *Repositories) Credits() repo.Credits               { return r.credits }
func (r *Repositories) Transactions() repo.Transactions     { return r.transactions }
func (r *Repositories) Bids() repo.Bids                     { return r.bids }
func (r *Repositories) Certifications() repo.Certifications { return r.certifications }
func (r *Repositories) Partnerships() repo.Partnerships     { return r.partnerships }
func (r *Repositories) Notifications() repo.Notifications   { return r.notifications }

// Store is the Postgres ledger store.
type Store struct {
	pool *pgxpool.Pool
	read *Repositories
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, read: newRepositories(pool)}
}

// WithTx runs fn inside one READ COMMITTED transaction. Row locks taken with
// GetForUpdate make concurrent operations on the same row queue up and then
// observe the winner's committed state.
func (s *Store) WithTx(ctx context.Context, fn func(repo.Tx) error) error {
	// BeginTxFunc rolls back on error and on panic, releasing the row locks
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}, func(tx pgx.Tx) error {
		return fn(newRepositories(tx))
	})
}

func (s *Store) View(_ context.Context, fn func(repo.Tx) error) error {
	return fn(s.read)
}

// mapErr translates driver errors into the repository error set.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", repo.ErrConflict, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", repo.ErrNotFound, pgErr.ConstraintName)
		case "23514":
			return fmt.Errorf("%w: %s", repo.ErrConstraint, pgErr.ConstraintName)
		}
	}
	return err
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
