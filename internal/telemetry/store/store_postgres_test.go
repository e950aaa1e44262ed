package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	missing := fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01", Message: `relation "llm_telemetry" does not exist`})
	assert.ErrorIs(t, classify(missing), ErrSchemaMissing)

	other := &pgconn.PgError{Code: "57014"}
	assert.Same(t, error(other), classify(other))

	plain := errors.New("conn refused")
	assert.Equal(t, plain, classify(plain))
}
