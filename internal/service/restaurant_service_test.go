package service

import (
	"context"
	"testing"

	"qr-kitchen/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func storedRestaurant() *model.Restaurant {
	return &model.Restaurant{
		ID:           tenantID,
		Name:         "Bistro",
		Email:        "chef@bistro.test",
		PasswordHash: "$argon2id$stub",
		Phone:        strPtr("555-0100"),
		Active:       true,
	}
}

func TestRestaurantService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("own restaurant", func(t *testing.T) {
		repo := new(MockRestaurantRepository)
		repo.On("GetByID", ctx, tenantID).Return(storedRestaurant(), nil)
		svc := NewRestaurantService(repo, zerolog.Nop())

		got, err := svc.Get(ctx, tenantID, tenantID)
		require.NoError(t, err)
		assert.Equal(t, "Bistro", got.Name)
	})

	t.Run("other tenant is not found", func(t *testing.T) {
		repo := new(MockRestaurantRepository)
		svc := NewRestaurantService(repo, zerolog.Nop())

		_, err := svc.Get(ctx, tenantID, tenantID+1)
		assert.ErrorIs(t, err, model.ErrRestaurantNotFound)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("missing row", func(t *testing.T) {
		repo := new(MockRestaurantRepository)
		repo.On("GetByID", ctx, tenantID).Return(nil, nil)
		svc := NewRestaurantService(repo, zerolog.Nop())

		_, err := svc.Get(ctx, tenantID, tenantID)
		assert.ErrorIs(t, err, model.ErrRestaurantNotFound)
	})
}

func TestRestaurantService_Update(t *testing.T) {
	ctx := context.Background()
	inactive := false

	tests := []struct {
		name    string
		id      int64
		req     *model.RestaurantUpdateRequest
		check   func(t *testing.T, r *model.Restaurant)
		wantErr error
	}{
		{
			name: "deactivate keeps the other fields",
			id:   tenantID,
			req:  &model.RestaurantUpdateRequest{Active: &inactive},
			check: func(t *testing.T, r *model.Restaurant) {
				assert.False(t, r.Active)
				assert.Equal(t, "Bistro", r.Name)
				assert.Equal(t, "555-0100", *r.Phone)
			},
		},
		{
			name: "trims name and normalises email",
			id:   tenantID,
			req:  &model.RestaurantUpdateRequest{Name: strPtr("  Brasserie "), Email: strPtr(" Owner@Brasserie.TEST ")},
			check: func(t *testing.T, r *model.Restaurant) {
				assert.Equal(t, "Brasserie", r.Name)
				assert.Equal(t, "owner@brasserie.test", r.Email)
				assert.True(t, r.Active)
			},
		},
		{
			name: "blank phone clears it",
			id:   tenantID,
			req:  &model.RestaurantUpdateRequest{Phone: strPtr("  "), Address: strPtr("1 Rue Haute")},
			check: func(t *testing.T, r *model.Restaurant) {
				assert.Nil(t, r.Phone)
				assert.Equal(t, "1 Rue Haute", *r.Address)
			},
		},
		{
			name:    "blank name",
			id:      tenantID,
			req:     &model.RestaurantUpdateRequest{Name: strPtr(" ")},
			wantErr: model.ErrValidation,
		},
		{
			name:    "bad email",
			id:      tenantID,
			req:     &model.RestaurantUpdateRequest{Email: strPtr("not-an-email")},
			wantErr: model.ErrValidation,
		},
		{
			name:    "empty request",
			id:      tenantID,
			wantErr: model.ErrValidation,
		},
		{
			name:    "other tenant",
			id:      tenantID + 1,
			req:     &model.RestaurantUpdateRequest{Active: &inactive},
			wantErr: model.ErrRestaurantNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRestaurantRepository)
			repo.On("GetByID", ctx, tenantID).Return(storedRestaurant(), nil)
			repo.On("Update", ctx, mock.AnythingOfType("*model.Restaurant")).Return(nil)
			svc := NewRestaurantService(repo, zerolog.Nop())

			got, err := svc.Update(ctx, tenantID, tt.id, tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			tt.check(t, got)
			repo.AssertCalled(t, "Update", ctx, got)
		})
	}
}

func TestRestaurantService_Update_Conflict(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRestaurantRepository)
	repo.On("GetByID", ctx, tenantID).Return(storedRestaurant(), nil)
	repo.On("Update", ctx, mock.Anything).Return(model.NewDomainError(model.ErrCodeConflict, "restaurant name or email already registered"))
	svc := NewRestaurantService(repo, zerolog.Nop())

	_, err := svc.Update(ctx, tenantID, tenantID, &model.RestaurantUpdateRequest{Email: strPtr("taken@bistro.test")})
	assert.ErrorIs(t, err, model.ErrConflict)
}
