package postgres

import (
	"context"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type usersRepo struct{ q querier }

const userColumns = `id, username, wallet_address, role, is_verified, verification_level, total_offsets, trading_volume, registered_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.WalletAddress, &u.Role, &u.IsVerified,
		&u.VerificationLevel, &u.TotalOffsets, &u.TradingVolume, &u.RegisteredAt)
	return u, mapErr(err)
}

func (r *usersRepo) Create(ctx context.Context, u *models.User) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO users(username, wallet_address, role, is_verified, verification_level)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING id, total_offsets, trading_volume, registered_at`,
		u.Username, u.WalletAddress, u.Role, u.IsVerified, u.VerificationLevel,
	).Scan(&u.ID, &u.TotalOffsets, &u.TradingVolume, &u.RegisteredAt)
	return mapErr(err)
}

func (r *usersRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *usersRepo) GetByWallet(ctx context.Context, wallet string) (models.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address=$1`, wallet))
}

func (r *usersRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) AddTotals(ctx context.Context, id int64, offsets, volume decimal.Decimal) error {
	return affected(r.q.Exec(ctx,
		`UPDATE users
		    SET total_offsets = total_offsets + $2,
		        trading_volume = trading_volume + $3
		  WHERE id = $1`,
		id, offsets, volume,
	))
}

func (r *usersRepo) SetVerification(ctx context.Context, id int64, verified bool, level models.VerificationLevel) error {
	return affected(r.q.Exec(ctx,
		`UPDATE users SET is_verified=$2, verification_level=$3 WHERE id=$1`,
		id, verified, level,
	))
}
