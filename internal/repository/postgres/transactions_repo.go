package postgres

import (
	"context"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type transactionsRepo struct{ q querier }

const txnColumns = `id, credit_id, buyer_id, seller_id, price, quantity, type, status, created_at`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.CreditID, &t.BuyerID, &t.SellerID, &t.Price, &t.Quantity, &t.Type, &t.Status, &t.CreatedAt)
	return t, mapErr(err)
}

func collectTxns(rows pgx.Rows, err error) ([]models.Transaction, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create appends a transaction. Rows are never updated afterwards.
func (r *transactionsRepo) Create(ctx context.Context, t *models.Transaction) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO transactions(credit_id, buyer_id, seller_id, price, quantity, type, status)
		 VALUES($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id, created_at`,
		t.CreditID, t.BuyerID, t.SellerID, t.Price, t.Quantity, t.Type, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error) {
	return collectTxns(r.q.Query(ctx,
		`SELECT `+txnColumns+`
		   FROM transactions
		  WHERE buyer_id=$1 OR seller_id=$1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	))
}

func (r *transactionsRepo) ListByCredit(ctx context.Context, creditID int64) ([]models.Transaction, error) {
	return collectTxns(r.q.Query(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE credit_id=$1 ORDER BY id`, creditID))
}
