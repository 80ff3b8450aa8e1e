package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"agendo-api/internal/model"
)

const providerServiceSelect = `
	SELECT ps.id, ps.provider_id, ps.template_id, st.name, st.category_id,
	       ps.price_cents, ps.duration_minutes, ps.is_active, ps.created_at
	FROM provider_services ps
	JOIN service_templates st ON st.id = ps.template_id`

func scanProviderService(row pgx.Row) (*model.ProviderService, error) {
	p := &model.ProviderService{}
	err := row.Scan(&p.ID, &p.ProviderID, &p.TemplateID, &p.Name, &p.CategoryID,
		&p.PriceCents, &p.DurationMinutes, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (s *Store) CreateProviderService(ctx context.Context, p *model.ProviderService) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO provider_services (id, provider_id, template_id, price_cents, duration_minutes, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at`,
		p.ID, p.ProviderID, p.TemplateID, p.PriceCents, p.DurationMinutes, p.IsActive,
	).Scan(&p.CreatedAt)
	return mapErr(err)
}

func (s *Store) ProviderService(ctx context.Context, id string) (*model.ProviderService, error) {
	return scanProviderService(s.pool.QueryRow(ctx, providerServiceSelect+` WHERE ps.id = $1`, id))
}

func (s *Store) ListProviderServices(ctx context.Context, providerID string, activeOnly bool) ([]model.ProviderService, error) {
	rows, err := s.pool.Query(ctx,
		providerServiceSelect+` WHERE ps.provider_id = $1 AND (NOT $2 OR ps.is_active)
		 ORDER BY st.name`, providerID, activeOnly)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.ProviderService
	for rows.Next() {
		p, err := scanProviderService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, mapErr(rows.Err())
}

// UpdateProviderService only touches rows owned by p.ProviderID.
func (s *Store) UpdateProviderService(ctx context.Context, p *model.ProviderService) error {
	return affected(s.pool.Exec(ctx,
		`UPDATE provider_services SET price_cents=$1, duration_minutes=$2, is_active=$3
		 WHERE id=$4 AND provider_id=$5`,
		p.PriceCents, p.DurationMinutes, p.IsActive, p.ID, p.ProviderID))
}

// DeleteProviderService deactivates; past appointments keep pointing at the row.
func (s *Store) DeleteProviderService(ctx context.Context, id, providerID string) error {
	return affected(s.pool.Exec(ctx,
		`UPDATE provider_services SET is_active = false WHERE id=$1 AND provider_id=$2`,
		id, providerID))
}

type ProviderSummary struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Phone      string       `json:"phone,omitempty"`
	IsVerified bool         `json:"isVerified"`
	Rating     model.Rating `json:"rating"`
}

// ListProviders returns active providers offering at least one active service,
// restricted to a category when categoryID is set. Best rated first.
func (s *Store) ListProviders(ctx context.Context, categoryID string) ([]ProviderSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.phone, u.is_verified,
		        COALESCE(AVG(r.rating), 0)::float8, COUNT(DISTINCT r.id)
		 FROM users u
		 LEFT JOIN reviews r ON r.provider_id = u.id
		 WHERE u.user_type = 'provider' AND u.is_active
		   AND EXISTS (
		     SELECT 1 FROM provider_services ps
		     JOIN service_templates st ON st.id = ps.template_id
		     WHERE ps.provider_id = u.id AND ps.is_active
		       AND ($1 = '' OR st.category_id::text = $1))
		 GROUP BY u.id
		 ORDER BY 5 DESC, u.name`, categoryID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []ProviderSummary
	for rows.Next() {
		var p ProviderSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.IsVerified, &p.Rating.Average, &p.Rating.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}
