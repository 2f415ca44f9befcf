package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/utils"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gdb, mock
}

func TestProfileGetByID(t *testing.T) {
	gdb, mock := mockDB(t)
	repo := NewProfileRepo(gdb)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "avatar_url", "role", "skills", "interests", "preferences", "created_at", "updated_at"}).
		AddRow("u1", "a@example.com", "Ada", "", "organizer", nil, nil, nil, now, now)
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1`).
		WithArgs("u1", 1).
		WillReturnRows(rows)

	p, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, models.RoleOrganizer, p.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileGetByIDNotFound(t *testing.T) {
	gdb, mock := mockDB(t)
	repo := NewProfileRepo(gdb)

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1`).
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileInsertIfMissingConflictIsQuiet(t *testing.T) {
	gdb, mock := mockDB(t)
	repo := NewProfileRepo(gdb)

	mock.ExpectBegin()
	// ON CONFLICT DO NOTHING means a pre-existing row affects zero rows
	mock.ExpectExec(`INSERT INTO "profiles" .+ ON CONFLICT \("id"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.InsertIfMissing(context.Background(), &models.Profile{
		ID:    "u1",
		Email: "a@example.com",
		Role:  models.RoleParticipant,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdateMissingRow(t *testing.T) {
	gdb, mock := mockDB(t)
	repo := NewProfileRepo(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "profiles" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Profile{ID: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
