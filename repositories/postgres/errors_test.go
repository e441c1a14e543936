package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/repositories"
)

func TestClassifyError(t *testing.T) {
	assert.NoError(t, classifyError(nil))
	assert.ErrorIs(t, classifyError(sql.ErrNoRows), repositories.ErrNotFound)

	unique := classifyError(fmt.Errorf("exec: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"}))
	ce, ok := repositories.AsConstraintError(unique)
	require.True(t, ok)
	assert.Equal(t, repositories.ConstraintUnique, ce.Kind)
	assert.Equal(t, "users_email_key", ce.Constraint)

	fk := classifyError(&pq.Error{Code: "23503", Constraint: "tasks_owner_id_fkey"})
	ce, ok = repositories.AsConstraintError(fk)
	require.True(t, ok)
	assert.Equal(t, repositories.ConstraintForeignKey, ce.Kind)

	other := &pq.Error{Code: "42P01"}
	assert.Equal(t, error(other), classifyError(other))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classifyError(plain))
}
