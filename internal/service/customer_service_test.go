package service

import (
	"context"
	"fmt"
	"testing"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewCustomerService(repository.NewCustomerRepository(db))
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterCustomerRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "secret123",
		City:     "Lisboa",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", created.Name)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterCustomerRequest{
			Name:     "Ana Again",
			Email:    "ana@example.com",
			Password: "secret123",
		})
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("login token carries the tipo claim", func(t *testing.T) {
		res, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "secret123"})
		require.NoError(t, err)

		parsed, err := jwt.Parse(res.Token, func(token *jwt.Token) (interface{}, error) {
			return jwtSecret(), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, created.ID, claims["sub"])
		assert.Equal(t, "cliente", claims["tipo"])
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "nope"})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})
}

func TestDeleteCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewCustomerService(repository.NewCustomerRepository(db))
	ctx := context.Background()

	t.Run("free customer is removed", func(t *testing.T) {
		customer := seedCustomer(t, db)
		require.NoError(t, svc.DeleteCustomer(ctx, customer.ID.String()))

		_, err := svc.GetCustomer(ctx, customer.ID.String())
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("customer with purchase history is kept", func(t *testing.T) {
		customer := seedCustomer(t, db)
		purchase := &model.Purchase{CustomerID: customer.ID}
		require.NoError(t, db.Create(purchase).Error)

		err := svc.DeleteCustomer(ctx, customer.ID.String())
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))

		_, err = svc.GetCustomer(ctx, customer.ID.String())
		assert.NoError(t, err)
	})
}

func TestListCustomersSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewCustomerService(repository.NewCustomerRepository(db))
	ctx := context.Background()

	for i, name := range []string{"Carlos Silva", "Carla Souza", "Pedro Lima"} {
		_, err := svc.Register(ctx, RegisterCustomerRequest{
			Name:     name,
			Email:    fmt.Sprintf("cliente%d@example.com", i),
			Password: "secret123",
		})
		require.NoError(t, err)
	}

	matches, total, err := svc.ListCustomers(ctx, 1, 10, "Carl")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, matches, 2)

	all, total, err := svc.ListCustomers(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)
}
