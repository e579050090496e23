package spins

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert selection: %w", &pgconn.PgError{Code: "23505"})),
		"wrapped constraint errors must still be recognized")
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}), "foreign key violations are not duplicates")
	assert.False(t, isUniqueViolation(fmt.Errorf("plain error")))
	assert.False(t, isUniqueViolation(nil))
}
