package store

import (
	"context"

	"agendo-api/internal/model"
)

// CreateReview relies on the unique appointment_id to allow one review per
// appointment.
func (s *Store) CreateReview(ctx context.Context, r *model.Review) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO reviews (id, appointment_id, client_id, provider_id, rating, comment)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at`,
		r.ID, r.AppointmentID, r.ClientID, r.ProviderID, r.Rating, r.Comment,
	).Scan(&r.CreatedAt)
	return mapErr(err)
}

func (s *Store) ListReviews(ctx context.Context, providerID string, limit int) ([]model.Review, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, appointment_id, client_id, provider_id, rating, comment, created_at
		 FROM reviews WHERE provider_id = $1
		 ORDER BY created_at DESC LIMIT $2`, providerID, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.AppointmentID, &r.ClientID, &r.ProviderID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) ProviderRating(ctx context.Context, providerID string) (model.Rating, error) {
	var r model.Rating
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE provider_id = $1`,
		providerID,
	).Scan(&r.Average, &r.Count)
	return r, err
}
