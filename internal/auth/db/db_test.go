package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-ordering/internal/apperrors"
	"ms-ordering/internal/auth/db"
	"ms-ordering/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxIdleConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.User)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func sampleUser(id, username, email string) models.User {
	return models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$notarealhashbutlongenough",
		Role:         models.RoleStaff,
		Name:         "Test User",
		Active:       true,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.CreateUser(sampleUser("u1", "maria", "maria@pizza.local")))

	byID, err := store.GetUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "maria", byID.Username)

	byUsername, err := store.GetUserByUsername("maria")
	require.NoError(t, err)
	assert.Equal(t, "u1", byUsername.ID)

	byEmail, err := store.GetUserByEmail("Maria@Pizza.Local")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID, "email lookup is case-insensitive")
}

func TestGetUserNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetUserByID("ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = store.GetUserByUsername("ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCreateUserDuplicate(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.CreateUser(sampleUser("u1", "maria", "maria@pizza.local")))

	err := store.CreateUser(sampleUser("u2", "maria", "other@pizza.local"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	err = store.CreateUser(sampleUser("u3", "other", "maria@pizza.local"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestUpdatePassword(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.CreateUser(sampleUser("u1", "maria", "maria@pizza.local")))
	require.NoError(t, store.UpdatePassword("u1", "$2a$10$differenthashvalue0000000"))

	got, err := store.GetUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$differenthashvalue0000000", got.PasswordHash)

	err = store.UpdatePassword("ghost", "whatever")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUpdateEmail(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.CreateUser(sampleUser("u1", "maria", "maria@pizza.local")))
	require.NoError(t, store.UpdateEmail("u1", "Maria.New@Pizza.Local"))

	got, err := store.GetUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "maria.new@pizza.local", got.Email, "email stored lowercase")
}

func TestAdminExists(t *testing.T) {
	store := setupTestDB(t)

	exists, err := store.AdminExists()
	require.NoError(t, err)
	assert.False(t, exists)

	admin := sampleUser("u1", "boss", "boss@pizza.local")
	admin.Role = models.RoleAdmin
	require.NoError(t, store.CreateUser(admin))

	exists, err = store.AdminExists()
	require.NoError(t, err)
	assert.True(t, exists)
}
