package database_test

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rmagsino/iskolar/internal/database"
	"github.com/rmagsino/iskolar/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	assert.NoError(t, database.MapPostgresError(nil))
	assert.ErrorIs(t, database.MapPostgresError(pgx.ErrNoRows), models.ErrNotFound)

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "students_email_key"}
	assert.ErrorIs(t, database.MapPostgresError(unique), models.ErrConflict)

	fk := &pgconn.PgError{Code: "23503"}
	assert.ErrorIs(t, database.MapPostgresError(fk), models.ErrBadRequest)

	boom := errors.New("boom")
	assert.ErrorIs(t, database.MapPostgresError(boom), boom)
}

func TestMapPostgresError_OneActiveApplicationIndex(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_applications_one_active"}

	assert.ErrorIs(t, database.MapPostgresError(pgErr), models.ErrActiveApplication)
}
