package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"agendo-api/internal/model"
)

const appointmentCols = `id, client_id, provider_id, provider_service_id, start_time, end_time,
	status, payment_status, payment_method, total_cents, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(&a.ID, &a.ClientID, &a.ProviderID, &a.ProviderServiceID, &a.StartTime, &a.EndTime,
		&a.Status, &a.PaymentStatus, &a.PaymentMethod, &a.TotalCents, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func collectAppointments(rows pgx.Rows, err error) ([]model.Appointment, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, mapErr(rows.Err())
}

// CreateAppointment books the slot. Bookings for one provider are serialised
// with an advisory lock and re-checked for overlap, both for the provider
// and the client; the exclusion constraint catches anything that slips by.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, a.ProviderID); err != nil {
		return err
	}

	var clash bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE (provider_id = $1 OR client_id = $2)
			  AND status <> 'cancelled'
			  AND start_time < $4
			  AND end_time > $3)`,
		a.ProviderID, a.ClientID, a.StartTime, a.EndTime,
	).Scan(&clash)
	if err != nil {
		return err
	}
	if clash {
		return ErrSlotTaken
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO appointments
		   (id, client_id, provider_id, provider_service_id, start_time, end_time,
		    status, payment_status, payment_method, total_cents, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING created_at, updated_at`,
		a.ID, a.ClientID, a.ProviderID, a.ProviderServiceID, a.StartTime, a.EndTime,
		a.Status, a.PaymentStatus, a.PaymentMethod, a.TotalCents, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}

	return tx.Commit(ctx)
}

func (s *Store) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

// ProviderBusy returns the provider's non-cancelled appointments overlapping
// [from, to).
func (s *Store) ProviderBusy(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	return collectAppointments(s.pool.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE provider_id = $1
		   AND status <> 'cancelled'
		   AND start_time < $3 AND end_time > $2
		 ORDER BY start_time`, providerID, from, to))
}

type AppointmentFilter struct {
	UserID string
	Role   model.Role
	From   time.Time
	To     time.Time
	Status model.AppointmentStatus
}

// ListAppointments lists what the user sees: a client their bookings, a
// provider their agenda, an admin everything.
func (s *Store) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentCols + ` FROM appointments
		  WHERE start_time >= $1 AND start_time < $2 AND ($3 = '' OR status = $3)`
	args := []any{f.From, f.To, string(f.Status)}

	switch f.Role {
	case model.RoleClient:
		q += ` AND client_id = $4`
		args = append(args, f.UserID)
	case model.RoleProvider:
		q += ` AND provider_id = $4`
		args = append(args, f.UserID)
	}
	q += ` ORDER BY start_time`

	return collectAppointments(s.pool.Query(ctx, q, args...))
}

// UpdateAppointmentStatus moves from -> to only if the row is still in from.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (*model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`UPDATE appointments SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $2
		 RETURNING `+appointmentCols, id, from, to))
	if err == ErrNotFound {
		return nil, ErrStale
	}
	return a, err
}

func (s *Store) SetAppointmentPayment(ctx context.Context, id string, status model.PaymentStatus, method string) error {
	return affected(s.pool.Exec(ctx,
		`UPDATE appointments
		 SET payment_status = $2, payment_method = COALESCE(NULLIF($3, ''), payment_method), updated_at = NOW()
		 WHERE id = $1`, id, status, method))
}
