package postgres

import (
	"context"

	"github.com/baharkarakas/h2credits-backend/internal/models"
)

type notificationsRepo struct{ q querier }

func (r *notificationsRepo) Create(ctx context.Context, n *models.Notification) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO notifications(user_id, title, message, notification_type, priority)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING id, is_read, created_at`,
		n.UserID, n.Title, n.Message, n.Type, n.Priority,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

func (r *notificationsRepo) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, title, message, notification_type, priority, is_read, created_at
		   FROM notifications
		  WHERE user_id=$1 AND (NOT $2::boolean OR NOT is_read)
		  ORDER BY created_at DESC, id DESC
		  LIMIT $3`,
		userID, unreadOnly, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Priority, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag; it is the only mutation a notification sees.
func (r *notificationsRepo) MarkRead(ctx context.Context, id, userID int64) error {
	return affected(r.q.Exec(ctx,
		`UPDATE notifications SET is_read=true WHERE id=$1 AND user_id=$2`, id, userID))
}
