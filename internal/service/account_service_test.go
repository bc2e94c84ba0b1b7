package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/workfolio-backend/internal/content"
	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
)

type mockOwnerFiles struct {
	mock.Mock
}

func (m *mockOwnerFiles) RemoveOwner(ctx context.Context, ownerID uuid.UUID) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func seedUser(store *memoryUserStore, plan, role string) *models.User {
	user := &models.User{
		ID:          uuid.New(),
		Email:       uuid.NewString() + "@example.com",
		DisplayName: "Someone",
		Plan:        plan,
		Role:        role,
	}
	store.put(user)
	return user
}

func TestAccountService_UpdateProfile(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewAccountService(store, nil)
	user := seedUser(store, models.PlanFree, models.RoleUser)

	updated, err := svc.UpdateProfile(context.Background(), user.Current(), ProfileUpdate{
		DisplayName: "  Ada Lovelace ",
		Bio:         content.Ptr(" Пишу компиляторы "),
		AvatarURL:   content.Ptr("https://cdn.example.com/ada.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.DisplayName)
	assert.Equal(t, "Пишу компиляторы", updated.Bio)
	assert.Equal(t, "https://cdn.example.com/ada.png", updated.AvatarURL)

	// Без bio и avatar_url прежние значения сохраняются.
	updated, err = svc.UpdateProfile(context.Background(), user.Current(), ProfileUpdate{DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.DisplayName)
	assert.Equal(t, "Пишу компиляторы", updated.Bio)
	assert.Equal(t, "https://cdn.example.com/ada.png", updated.AvatarURL)

	_, err = svc.UpdateProfile(context.Background(), user.Current(), ProfileUpdate{DisplayName: "   "})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.UpdateProfile(context.Background(), user.Current(), ProfileUpdate{DisplayName: "Ada", AvatarURL: content.Ptr("ftp://x/y.png")})
	assert.True(t, apperror.IsValidation(err))
}

func TestAccountService_DeleteRequiresPro(t *testing.T) {
	store := newMemoryUserStore()
	files := &mockOwnerFiles{}
	svc := NewAccountService(store, files)
	free := seedUser(store, models.PlanFree, models.RoleUser)

	err := svc.DeleteAccount(context.Background(), free.Current())
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	assert.Equal(t, "Forbidden: Pro plan required to delete account", apperror.ErrProRequired.Message)
	assert.Contains(t, store.usersByID, free.ID)
	files.AssertNotCalled(t, "RemoveOwner", mock.Anything, mock.Anything)
}

func TestAccountService_DeleteProAccount(t *testing.T) {
	store := newMemoryUserStore()
	files := &mockOwnerFiles{}
	svc := NewAccountService(store, files)
	pro := seedUser(store, models.PlanPro, models.RoleUser)

	files.On("RemoveOwner", mock.Anything, pro.ID).Return(errors.New("disk busy"))

	require.NoError(t, svc.DeleteAccount(context.Background(), pro.Current()))
	assert.NotContains(t, store.usersByID, pro.ID)
	files.AssertExpectations(t)
}

func TestAccountService_AdminUpdate(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewAccountService(store, nil)
	user := seedUser(store, models.PlanFree, models.RoleUser)
	ctx := context.Background()

	role, plan := models.RoleAdmin, models.PlanPro
	updated, err := svc.AdminUpdate(ctx, user.ID, AdminUserUpdate{Role: &role, Plan: &plan})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, models.PlanPro, updated.Plan)

	bad := "enterprise"
	_, err = svc.AdminUpdate(ctx, user.ID, AdminUserUpdate{Plan: &bad})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.AdminUpdate(ctx, user.ID, AdminUserUpdate{})
	require.Error(t, err)

	_, err = svc.AdminUpdate(ctx, uuid.New(), AdminUserUpdate{Plan: &plan})
	assert.True(t, apperror.IsNotFound(err))
}

func TestAccountService_ListUsersClampsPage(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewAccountService(store, nil)
	for i := 0; i < 3; i++ {
		seedUser(store, models.PlanFree, models.RoleUser)
	}

	users, err := svc.ListUsers(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	users, err = svc.ListUsers(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestAccountService_AdminDeleteUnknown(t *testing.T) {
	svc := NewAccountService(newMemoryUserStore(), nil)
	err := svc.AdminDelete(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}
