package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrConflict},
		{"exclusion", &pgconn.PgError{Code: "23P01"}, ErrSlotTaken},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrNotFound},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErr(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	other := errors.New("boom")
	assert.Same(t, other, mapErr(other))

	check := &pgconn.PgError{Code: "23514"}
	assert.Equal(t, error(check), mapErr(check))
}

func TestAffected(t *testing.T) {
	assert.ErrorIs(t, affected(pgconn.NewCommandTag("UPDATE 0"), nil), ErrNotFound)
	assert.NoError(t, affected(pgconn.NewCommandTag("UPDATE 1"), nil))
	assert.ErrorIs(t, affected(pgconn.CommandTag{}, pgx.ErrNoRows), ErrNotFound)
}
