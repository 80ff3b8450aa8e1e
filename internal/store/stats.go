package store

import "context"

// TableCounts is used by the operator CLI health check.
func (s *Store) TableCounts(ctx context.Context) (map[string]int64, error) {
	tables := []string{
		"users", "niches", "categories", "service_templates", "provider_services",
		"availability", "blocked_slots", "appointments", "payments", "withdrawals",
		"reviews", "notifications",
	}
	out := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		// table names come from the fixed list above
		if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+t).Scan(&n); err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, nil
}
