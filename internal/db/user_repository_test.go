package db

import (
	"testing"

	"github.com/kennethwltu/smspanel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryCreate(t *testing.T) {
	database := setupTestDB(t)
	repo := NewUserRepository(database)

	t.Run("valid user", func(t *testing.T) {
		user := models.NewUser("alice", "hashed-password")
		err := repo.Create(user)
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.NotZero(t, user.CreatedAt)
	})

	t.Run("generates UUID when missing", func(t *testing.T) {
		user := &models.User{Username: "bob", PasswordHash: "hash", Active: true}
		err := repo.Create(user)
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		user := models.NewUser("alice", "hash")
		err := repo.Create(user)
		assert.Error(t, err)
	})

	t.Run("nil user", func(t *testing.T) {
		assert.Error(t, repo.Create(nil))
	})
}

func TestUserRepositoryGet(t *testing.T) {
	database := setupTestDB(t)
	repo := NewUserRepository(database)

	user := models.NewUser("carol", "hash")
	user.IsAdmin = true
	require.NoError(t, repo.Create(user))

	t.Run("by ID", func(t *testing.T) {
		found, err := repo.GetByID(user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "carol", found.Username)
		assert.True(t, found.IsAdmin)
	})

	t.Run("by username", func(t *testing.T) {
		found, err := repo.GetByUsername("carol")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("missing user returns nil", func(t *testing.T) {
		found, err := repo.GetByID("no-such-id")
		require.NoError(t, err)
		assert.Nil(t, found)

		found, err = repo.GetByUsername("nobody")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("empty inputs", func(t *testing.T) {
		_, err := repo.GetByID("")
		assert.Error(t, err)
		_, err = repo.GetByUsername("")
		assert.Error(t, err)
	})
}

func TestUserRepositoryUpdate(t *testing.T) {
	database := setupTestDB(t)
	repo := NewUserRepository(database)

	user := models.NewUser("dave", "hash")
	require.NoError(t, repo.Create(user))

	t.Run("update fields", func(t *testing.T) {
		user.Active = false
		user.IsAdmin = true
		require.NoError(t, repo.Update(user))

		found, err := repo.GetByID(user.ID)
		require.NoError(t, err)
		assert.False(t, found.Active)
		assert.True(t, found.IsAdmin)
	})

	t.Run("missing user", func(t *testing.T) {
		ghost := models.NewUser("ghost", "hash")
		assert.Error(t, repo.Update(ghost))
	})

	t.Run("invalid input", func(t *testing.T) {
		assert.Error(t, repo.Update(nil))
		assert.Error(t, repo.Update(&models.User{}))
	})
}
