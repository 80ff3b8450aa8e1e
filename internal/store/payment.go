package store

import (
	"context"

	"agendo-api/internal/model"
)

func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO payments (id, appointment_id, gateway, external_id, amount_cents, status)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		p.ID, p.AppointmentID, p.Gateway, p.ExternalID, p.AmountCents, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

// ApplyPaymentStatus records a gateway notification. Redelivered or stale
// events that would not move the payment forward are ignored; changed reports
// whether anything was written. The appointment's payment status follows the
// payment row in the same transaction.
func (s *Store) ApplyPaymentStatus(ctx context.Context, gateway, externalID string, next model.PaymentStatus) (p *model.Payment, changed bool, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	p = &model.Payment{}
	err = tx.QueryRow(ctx,
		`SELECT id, appointment_id, gateway, external_id, amount_cents, status, created_at, updated_at
		 FROM payments WHERE gateway = $1 AND external_id = $2
		 FOR UPDATE`, gateway, externalID,
	).Scan(&p.ID, &p.AppointmentID, &p.Gateway, &p.ExternalID, &p.AmountCents, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, false, mapErr(err)
	}
	if !p.Status.Advances(next) {
		return p, false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`, p.ID, next); err != nil {
		return nil, false, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE appointments SET payment_status = $2, payment_method = $3, updated_at = NOW() WHERE id = $1`,
		p.AppointmentID, next, gateway); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	p.Status = next
	return p, true, nil
}
