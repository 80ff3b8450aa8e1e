package store

import (
	"context"

	"agendo-api/internal/model"
)

func (s *Store) CreateNiche(ctx context.Context, n *model.Niche) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO niches (id, name, description, icon) VALUES ($1,$2,$3,$4)`,
		n.ID, n.Name, n.Description, n.Icon)
	return mapErr(err)
}

func (s *Store) ListNiches(ctx context.Context) ([]model.Niche, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, icon FROM niches ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Niche
	for rows.Next() {
		var n model.Niche
		if err := rows.Scan(&n.ID, &n.Name, &n.Description, &n.Icon); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) CreateCategory(ctx context.Context, c *model.Category) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO categories (id, niche_id, name, color) VALUES ($1,$2,$3,$4)`,
		c.ID, c.NicheID, c.Name, c.Color)
	return mapErr(err)
}

// ListCategories returns every category when nicheID is empty.
func (s *Store) ListCategories(ctx context.Context, nicheID string) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, niche_id, name, color FROM categories
		 WHERE ($1 = '' OR niche_id::text = $1)
		 ORDER BY name`, nicheID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.NicheID, &c.Name, &c.Color); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) CreateServiceTemplate(ctx context.Context, t *model.ServiceTemplate) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO service_templates (id, category_id, name, description, duration_minutes, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.CategoryID, t.Name, t.Description, t.DurationMinutes, t.IsActive)
	return mapErr(err)
}

func (s *Store) ServiceTemplate(ctx context.Context, id string) (*model.ServiceTemplate, error) {
	t := &model.ServiceTemplate{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, category_id, name, description, duration_minutes, is_active
		 FROM service_templates WHERE id = $1`, id,
	).Scan(&t.ID, &t.CategoryID, &t.Name, &t.Description, &t.DurationMinutes, &t.IsActive)
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

// ListServiceTemplates returns active templates, all categories when
// categoryID is empty.
func (s *Store) ListServiceTemplates(ctx context.Context, categoryID string) ([]model.ServiceTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, category_id, name, description, duration_minutes, is_active
		 FROM service_templates
		 WHERE is_active AND ($1 = '' OR category_id::text = $1)
		 ORDER BY name`, categoryID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.ServiceTemplate
	for rows.Next() {
		var t model.ServiceTemplate
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Name, &t.Description, &t.DurationMinutes, &t.IsActive); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, mapErr(rows.Err())
}
