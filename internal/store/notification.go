package store

import (
	"context"

	"agendo-api/internal/model"
)

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, user_id, title, message, type, appointment_id)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at`,
		n.ID, n.UserID, n.Title, n.Message, n.Type, n.AppointmentID,
	).Scan(&n.CreatedAt)
	return mapErr(err)
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title, message, type, appointment_id, read, created_at
		 FROM notifications
		 WHERE user_id = $1 AND (NOT $2 OR NOT read)
		 ORDER BY created_at DESC LIMIT $3`, userID, unreadOnly, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.AppointmentID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	return affected(s.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`, id, userID))
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
