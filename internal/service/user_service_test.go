package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/repository"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

func TestUserService(t *testing.T) {
	users := newFakeUserRepo()
	service := NewUserService(users)
	require.NoError(t, users.Create(context.Background(), &domain.User{ID: "emp-1", Name: "Luis", Email: "luis@empleado.com", Role: domain.RoleEmployee, IsActive: true}))
	require.NoError(t, users.Create(context.Background(), &domain.User{ID: "client-1", Name: "Ana", Email: "ana@example.com", Role: domain.RoleClient, IsActive: true}))

	t.Run("listing is administrator only", func(t *testing.T) {
		_, err := service.ListUsers(context.Background(), testEmployee, repository.UserFilter{})
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

		list, err := service.ListUsers(context.Background(), testAdmin, repository.UserFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("role filter applies", func(t *testing.T) {
		role := domain.RoleEmployee
		list, err := service.ListUsers(context.Background(), testAdmin, repository.UserFilter{Role: &role})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "emp-1", list[0].ID)
	})

	t.Run("suspend and reactivate", func(t *testing.T) {
		suspended, err := service.SetActive(context.Background(), testAdmin, "emp-1", false)
		require.NoError(t, err)
		assert.False(t, suspended.IsActive)

		restored, err := service.SetActive(context.Background(), testAdmin, "emp-1", true)
		require.NoError(t, err)
		assert.True(t, restored.IsActive)
	})

	t.Run("suspension is administrator only", func(t *testing.T) {
		_, err := service.SetActive(context.Background(), testClient, "emp-1", false)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		_, err := service.GetUser(context.Background(), testAdmin, "ghost")
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})
}
