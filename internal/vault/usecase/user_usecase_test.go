package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/vaulty/internal/errors"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

func createUserInput(username, role string) *CreateUserInput {
	return &CreateUserInput{
		Username:       username,
		Password:       "correct-horse-battery",
		Role:           role,
		SecurityGroups: []string{"10.0.0.0/8"},
	}
}

func TestUserUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		f := newFixture(t)

		user, err := f.users.Create(ctx, createUserInput("alice", "admin"))
		require.NoError(t, err)
		assert.Equal(t, vaultDomain.RoleAdmin, user.Role)
		assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)
		assert.True(t, f.passwords.ComparePassword("correct-horse-battery", user.PasswordHash))
	})

	t.Run("rejects short password", func(t *testing.T) {
		f := newFixture(t)

		input := createUserInput("alice", "admin")
		input.Password = "short"
		_, err := f.users.Create(ctx, input)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("rejects bad role", func(t *testing.T) {
		f := newFixture(t)

		input := createUserInput("alice", "owner")
		_, err := f.users.Create(ctx, input)
		assert.ErrorIs(t, err, vaultDomain.ErrInvalidRole)
	})

	t.Run("rejects bad security group", func(t *testing.T) {
		f := newFixture(t)

		input := createUserInput("alice", "admin")
		input.SecurityGroups = []string{"10.0.0.1"}
		_, err := f.users.Create(ctx, input)
		assert.ErrorIs(t, err, vaultDomain.ErrInvalidSecurityGroup)
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.users.Create(ctx, createUserInput("alice", "admin"))
		require.NoError(t, err)
		_, err = f.users.Create(ctx, createUserInput("alice", "user"))
		assert.ErrorIs(t, err, vaultDomain.ErrUserAlreadyExists)
	})
}

func TestUserUseCase_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.Create(ctx, createUserInput("alice", "admin"))
	require.NoError(t, err)

	require.NoError(t, f.users.ChangePassword(ctx, "alice", "new-password-123"))

	user, err := f.users.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, f.passwords.ComparePassword("new-password-123", user.PasswordHash))
	assert.False(t, f.passwords.ComparePassword("correct-horse-battery", user.PasswordHash))

	err = f.users.ChangePassword(ctx, "alice", "short")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = f.users.ChangePassword(ctx, "nobody", "new-password-123")
	assert.ErrorIs(t, err, vaultDomain.ErrUserNotFound)
}

func TestUserUseCase_PromoteDemote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.Create(ctx, createUserInput("root", "admin"))
	require.NoError(t, err)
	_, err = f.users.Create(ctx, createUserInput("bob", "user"))
	require.NoError(t, err)

	require.NoError(t, f.users.Promote(ctx, "bob"))
	user, err := f.users.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, vaultDomain.RoleAdmin, user.Role)

	require.NoError(t, f.users.Demote(ctx, "bob"))
	user, err = f.users.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, vaultDomain.RoleUser, user.Role)

	// Demoting the only remaining admin is rejected.
	err = f.users.Demote(ctx, "root")
	assert.ErrorIs(t, err, vaultDomain.ErrLastAdmin)

	// Demoting a user already without the role is a no-op.
	require.NoError(t, f.users.Demote(ctx, "bob"))
}

func TestUserUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.Create(ctx, createUserInput("root", "admin"))
	require.NoError(t, err)
	_, err = f.users.Create(ctx, createUserInput("bob", "user"))
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, "bob"))
	_, err = f.users.Get(ctx, "bob")
	assert.ErrorIs(t, err, vaultDomain.ErrUserNotFound)

	err = f.users.Delete(ctx, "root")
	assert.ErrorIs(t, err, vaultDomain.ErrLastAdmin)
}

func TestUserUseCase_Bootstrap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.users.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, RootUsername, out.Username)
	assert.Len(t, out.PlainPassword, 20)

	root, err := f.users.Get(ctx, RootUsername)
	require.NoError(t, err)
	assert.Equal(t, vaultDomain.RoleAdmin, root.Role)
	assert.True(t, f.passwords.ComparePassword(out.PlainPassword, root.PasswordHash))
	assert.Equal(t, vaultDomain.LoopbackSecurityGroups().Strings(), root.SecurityGroups.Strings())
}
