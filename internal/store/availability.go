package store

import (
	"context"
	"time"

	"agendo-api/internal/model"
)

func (s *Store) ListAvailability(ctx context.Context, providerID string) ([]model.Availability, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, provider_id, day_of_week, to_char(date, 'YYYY-MM-DD'),
		        to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
		        interval_minutes, is_available
		 FROM availability
		 WHERE provider_id = $1
		 ORDER BY date NULLS FIRST, day_of_week, start_time`, providerID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Availability
	for rows.Next() {
		var a model.Availability
		if err := rows.Scan(&a.ID, &a.ProviderID, &a.DayOfWeek, &a.Date,
			&a.StartTime, &a.EndTime, &a.IntervalMinutes, &a.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}

// ReplaceAvailability swaps the provider's whole schedule in one transaction.
func (s *Store) ReplaceAvailability(ctx context.Context, providerID string, rows []model.Availability) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM availability WHERE provider_id = $1`, providerID); err != nil {
		return err
	}
	for _, a := range rows {
		_, err := tx.Exec(ctx,
			`INSERT INTO availability
			   (id, provider_id, day_of_week, date, start_time, end_time, interval_minutes, is_available)
			 VALUES ($1,$2,$3,$4::date,$5::time,$6::time,$7,$8)`,
			a.ID, providerID, a.DayOfWeek, a.Date, a.StartTime, a.EndTime, a.IntervalMinutes, a.IsAvailable)
		if err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) CreateBlockedSlot(ctx context.Context, b *model.BlockedSlot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blocked_slots (id, provider_id, start_time, end_time, reason) VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.ProviderID, b.StartTime, b.EndTime, b.Reason)
	return mapErr(err)
}

func (s *Store) DeleteBlockedSlot(ctx context.Context, id, providerID string) error {
	return affected(s.pool.Exec(ctx,
		`DELETE FROM blocked_slots WHERE id = $1 AND provider_id = $2`, id, providerID))
}

// BlockedSlots returns blocks overlapping [from, to).
func (s *Store) BlockedSlots(ctx context.Context, providerID string, from, to time.Time) ([]model.BlockedSlot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, provider_id, start_time, end_time, reason
		 FROM blocked_slots
		 WHERE provider_id = $1 AND start_time < $3 AND end_time > $2
		 ORDER BY start_time`, providerID, from, to)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.BlockedSlot
	for rows.Next() {
		var b model.BlockedSlot
		if err := rows.Scan(&b.ID, &b.ProviderID, &b.StartTime, &b.EndTime, &b.Reason); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, mapErr(rows.Err())
}
