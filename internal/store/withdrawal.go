package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"agendo-api/internal/model"
)

// balance sums are computed in SQL with the same rounding as model.NetEarning
const balanceQuery = `
	SELECT
	  COALESCE((SELECT SUM(total_cents - (total_cents * $2 + 50) / 100)
	            FROM appointments
	            WHERE provider_id = $1 AND status = 'completed' AND payment_status = 'paid'), 0),
	  COALESCE((SELECT SUM(amount_cents)
	            FROM withdrawals
	            WHERE provider_id = $1 AND status <> 'rejected'), 0)`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func balance(ctx context.Context, q querier, providerID string, feePercent int) (model.Balance, error) {
	var b model.Balance
	if err := q.QueryRow(ctx, balanceQuery, providerID, feePercent).Scan(&b.EarnedCents, &b.WithdrawnCents); err != nil {
		return b, err
	}
	b.AvailableCents = b.EarnedCents - b.WithdrawnCents
	return b, nil
}

func (s *Store) ProviderBalance(ctx context.Context, providerID string, feePercent int) (model.Balance, error) {
	return balance(ctx, s.pool, providerID, feePercent)
}

// CreateWithdrawal checks the balance and inserts under a per-provider lock,
// so two concurrent requests cannot both spend the same money.
func (s *Store) CreateWithdrawal(ctx context.Context, w *model.Withdrawal, feePercent int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('withdraw:' || $1))`, w.ProviderID); err != nil {
		return err
	}
	b, err := balance(ctx, tx, w.ProviderID, feePercent)
	if err != nil {
		return err
	}
	if w.AmountCents > b.AvailableCents {
		return ErrInsufficientBalance
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO withdrawals (id, provider_id, amount_cents, pix_key, status)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING requested_at`,
		w.ID, w.ProviderID, w.AmountCents, w.PixKey, w.Status,
	).Scan(&w.RequestedAt)
	if err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}

const withdrawalCols = `id, provider_id, amount_cents, pix_key, status, admin_notes, requested_at, processed_at`

func scanWithdrawal(row pgx.Row) (*model.Withdrawal, error) {
	w := &model.Withdrawal{}
	err := row.Scan(&w.ID, &w.ProviderID, &w.AmountCents, &w.PixKey, &w.Status, &w.AdminNotes, &w.RequestedAt, &w.ProcessedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return w, nil
}

func (s *Store) Withdrawal(ctx context.Context, id string) (*model.Withdrawal, error) {
	return scanWithdrawal(s.pool.QueryRow(ctx, `SELECT `+withdrawalCols+` FROM withdrawals WHERE id = $1`, id))
}

// ListWithdrawals filters by provider and status when they are non-empty.
// Oldest first, which is the order admins pay them in.
func (s *Store) ListWithdrawals(ctx context.Context, providerID string, status model.WithdrawalStatus) ([]model.Withdrawal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+withdrawalCols+` FROM withdrawals
		 WHERE ($1 = '' OR provider_id::text = $1) AND ($2 = '' OR status = $2)
		 ORDER BY requested_at`, providerID, string(status))
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, mapErr(rows.Err())
}

// UpdateWithdrawalStatus moves from -> to only if the row is still in from.
func (s *Store) UpdateWithdrawalStatus(ctx context.Context, id string, from, to model.WithdrawalStatus, notes string) (*model.Withdrawal, error) {
	w, err := scanWithdrawal(s.pool.QueryRow(ctx,
		`UPDATE withdrawals
		 SET status = $3,
		     admin_notes = CASE WHEN $4 = '' THEN admin_notes ELSE $4 END,
		     processed_at = CASE WHEN $3 IN ('paid','rejected') THEN NOW() ELSE processed_at END
		 WHERE id = $1 AND status = $2
		 RETURNING `+withdrawalCols, id, from, to, notes))
	if err == ErrNotFound {
		return nil, ErrStale
	}
	return w, err
}
