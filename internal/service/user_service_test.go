package service

import (
	"context"
	"testing"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	t.Run("creates an active account", func(t *testing.T) {
		user, err := svc.CreateUser(ctx, CreateUserRequest{
			Name:     "Maria",
			Email:    "maria@example.com",
			Password: "secret123",
			Role:     model.RoleRegular,
		})
		require.NoError(t, err)
		assert.True(t, user.Active)
		assert.Equal(t, model.RoleRegular, user.Role)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, CreateUserRequest{
			Name:     "Maria Again",
			Email:    "maria@example.com",
			Password: "secret123",
			Role:     model.RoleRegular,
		})
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("unknown role is invalid", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, CreateUserRequest{
			Name:     "Root",
			Email:    "root@example.com",
			Password: "secret123",
			Role:     "superuser",
		})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()
	user := seedUser(t, db, model.RoleRegular) // password secret123

	t.Run("issues a token with sub and role claims", func(t *testing.T) {
		res, err := svc.Login(ctx, LoginRequest{Email: user.Email, Password: "secret123"})
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)
		assert.NotNil(t, res.User.LastLogin)

		parsed, err := jwt.Parse(res.Token, func(token *jwt.Token) (interface{}, error) {
			return jwtSecret(), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, user.ID.String(), claims["sub"])
		assert.Equal(t, model.RoleRegular, claims["role"])
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: user.Email, Password: "wrong"})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("deactivated account cannot log in", func(t *testing.T) {
		inactive := seedUser(t, db, model.RoleRegular)
		require.NoError(t, db.Model(&model.User{}).Where("id = ?", inactive.ID).Update("active", false).Error)

		_, err := svc.Login(ctx, LoginRequest{Email: inactive.Email, Password: "secret123"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deactivated")
	})
}

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()
	admin := seedUser(t, db, model.RoleAdmin)
	regular := seedUser(t, db, model.RoleRegular)

	t.Run("admin changes another user's role", func(t *testing.T) {
		res, err := svc.UpdateUser(ctx, admin.ID.String(), regular.ID.String(), UpdateUserRequest{Role: model.RoleReadOnly})
		require.NoError(t, err)
		assert.Equal(t, model.RoleReadOnly, res.Role)
	})

	t.Run("self cannot change own role", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, admin.ID.String(), admin.ID.String(), UpdateUserRequest{Role: model.RoleRegular})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("self cannot deactivate own account", func(t *testing.T) {
		inactive := false
		_, err := svc.UpdateUser(ctx, admin.ID.String(), admin.ID.String(), UpdateUserRequest{Active: &inactive})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("non-admin cannot update others", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, regular.ID.String(), admin.ID.String(), UpdateUserRequest{Name: "Hacked"})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("self can update own name", func(t *testing.T) {
		res, err := svc.UpdateUser(ctx, regular.ID.String(), regular.ID.String(), UpdateUserRequest{Name: "Renamed"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", res.Name)
	})
}

func TestVerifyAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()
	admin := seedUser(t, db, model.RoleAdmin)
	regular := seedUser(t, db, model.RoleRegular)

	assert.NoError(t, svc.VerifyAdmin(ctx, admin.ID.String()))
	assert.True(t, apperr.IsKind(svc.VerifyAdmin(ctx, regular.ID.String()), apperr.KindPermissionDenied))
	assert.True(t, apperr.IsKind(svc.VerifyAdmin(ctx, "not-a-uuid"), apperr.KindPermissionDenied))

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", admin.ID).Update("active", false).Error)
	assert.True(t, apperr.IsKind(svc.VerifyAdmin(ctx, admin.ID.String()), apperr.KindPermissionDenied))
}
