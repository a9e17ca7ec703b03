package repository

import (
	"context"
	"testing"

	"qr-kitchen/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewRestaurantRepository(pool, zerolog.Nop())

	t.Run("default tenant is seeded", func(t *testing.T) {
		r, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.True(t, r.Active)
	})

	r := &model.Restaurant{
		Name:         "Chez Paul",
		Email:        "paul@chez.fr",
		PasswordHash: "$argon2id$stub",
		Active:       true,
	}

	t.Run("create", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, r))
		assert.Greater(t, r.ID, int64(1))
		assert.False(t, r.CreatedAt.IsZero())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dup := &model.Restaurant{Name: "Other", Email: "paul@chez.fr", PasswordHash: "x", Active: true}
		assert.ErrorIs(t, repo.Create(ctx, dup), model.ErrConflict)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		dup := &model.Restaurant{Name: "Chez Paul", Email: "new@chez.fr", PasswordHash: "x", Active: true}
		assert.ErrorIs(t, repo.Create(ctx, dup), model.ErrConflict)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "paul@chez.fr")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, r.ID, got.ID)
		assert.Equal(t, "$argon2id$stub", got.PasswordHash)

		missing, err := repo.GetByEmail(ctx, "nobody@chez.fr")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("update profile and deactivate", func(t *testing.T) {
		phone := "+33 1 23 45 67 89"
		r.Name = "Chez Paulette"
		r.Phone = &phone
		r.Active = false
		require.NoError(t, repo.Update(ctx, r))

		got, err := repo.GetByID(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Chez Paulette", got.Name)
		assert.Equal(t, phone, *got.Phone)
		assert.Nil(t, got.Address)
		assert.False(t, got.Active)
		assert.Equal(t, "$argon2id$stub", got.PasswordHash)
	})

	t.Run("update to a taken email conflicts", func(t *testing.T) {
		seeded, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		taken := *r
		taken.Email = seeded.Email
		assert.ErrorIs(t, repo.Update(ctx, &taken), model.ErrConflict)
	})

	t.Run("update unknown restaurant", func(t *testing.T) {
		ghost := &model.Restaurant{ID: 999999, Name: "Ghost", Email: "ghost@nowhere.test"}
		assert.ErrorIs(t, repo.Update(ctx, ghost), model.ErrRestaurantNotFound)
	})
}
