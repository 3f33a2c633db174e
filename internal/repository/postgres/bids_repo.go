package postgres

import (
	"context"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type bidsRepo struct{ q querier }

const bidColumns = `id, credit_id, bidder_id, bid_price, quantity, status, expires_at, created_at, accepted_at, notes`

func scanBid(row pgx.Row) (models.TradingBid, error) {
	var b models.TradingBid
	err := row.Scan(&b.ID, &b.CreditID, &b.BidderID, &b.Price, &b.Quantity, &b.Status,
		&b.ExpiresAt, &b.CreatedAt, &b.AcceptedAt, &b.Notes)
	return b, mapErr(err)
}

func collectBids(rows pgx.Rows, err error) ([]models.TradingBid, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TradingBid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *bidsRepo) Create(ctx context.Context, b *models.TradingBid) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO trading_bids(credit_id, bidder_id, bid_price, quantity, status, expires_at, notes)
		 VALUES($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id, created_at`,
		b.CreditID, b.BidderID, b.Price, b.Quantity, b.Status, b.ExpiresAt, b.Notes,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *bidsRepo) GetByID(ctx context.Context, id int64) (models.TradingBid, error) {
	return scanBid(r.q.QueryRow(ctx, `SELECT `+bidColumns+` FROM trading_bids WHERE id=$1`, id))
}

func (r *bidsRepo) GetForUpdate(ctx context.Context, id int64) (models.TradingBid, error) {
	return scanBid(r.q.QueryRow(ctx, `SELECT `+bidColumns+` FROM trading_bids WHERE id=$1 FOR UPDATE`, id))
}

func (r *bidsRepo) UpdateStatus(ctx context.Context, id int64, status models.BidStatus, acceptedAt *time.Time) error {
	return affected(r.q.Exec(ctx,
		`UPDATE trading_bids SET status=$2, accepted_at=$3 WHERE id=$1`,
		id, status, acceptedAt,
	))
}

func (r *bidsRepo) ListByCredit(ctx context.Context, creditID int64) ([]models.TradingBid, error) {
	return collectBids(r.q.Query(ctx,
		`SELECT `+bidColumns+` FROM trading_bids WHERE credit_id=$1 ORDER BY bid_price DESC, id`, creditID))
}

func (r *bidsRepo) ListByBidder(ctx context.Context, bidderID int64) ([]models.TradingBid, error) {
	return collectBids(r.q.Query(ctx,
		`SELECT `+bidColumns+` FROM trading_bids WHERE bidder_id=$1 ORDER BY created_at DESC, id DESC`, bidderID))
}

func (r *bidsRepo) RejectOpen(ctx context.Context, creditID, exceptID int64) ([]models.TradingBid, error) {
	return collectBids(r.q.Query(ctx,
		`UPDATE trading_bids
		    SET status='rejected'
		  WHERE credit_id=$1 AND id<>$2 AND status='active'
		  RETURNING `+bidColumns,
		creditID, exceptID,
	))
}
