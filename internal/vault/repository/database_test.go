package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	apperrors "github.com/allisson/vaulty/internal/errors"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

func testDatabase(t *testing.T) (*Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vaulty.db")

	db, fresh, err := Open(path)
	require.NoError(t, err)
	require.True(t, fresh)
	return db, path
}

func testUser(t *testing.T, username string, role vaultDomain.Role) *vaultDomain.User {
	t.Helper()
	groups, err := vaultDomain.ParseSecurityGroups([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	now := time.Now().UTC()
	return &vaultDomain.User{
		Username:       username,
		PasswordHash:   "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Role:           role,
		SecurityGroups: groups,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func testSecret(t *testing.T, name string) *vaultDomain.Secret {
	t.Helper()
	now := time.Now().UTC()
	return &vaultDomain.Secret{
		Name: name,
		Record: &cryptoDomain.Record{
			WrappedKey: []byte("wrapped-key"),
			Algorithm:  cryptoDomain.AESGCM,
			Nonce:      []byte("012345678901"),
			Ciphertext: []byte("ciphertext"),
			Tag:        []byte("0123456789012345"),
		},
		ContentKind: vaultDomain.ContentKindText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testAccessKey(t *testing.T, id, vaultName string) *vaultDomain.AccessKey {
	t.Helper()
	groups, err := vaultDomain.ParseSecurityGroups([]string{"0.0.0.0/0"})
	require.NoError(t, err)

	return &vaultDomain.AccessKey{
		ID:                 id,
		VaultName:          vaultName,
		SecretKeySignature: "c2lnbmF0dXJl",
		Permissions:        vaultDomain.Capabilities{vaultDomain.CapabilityListSecrets},
		SecurityGroups:     groups,
		CreatedAt:          time.Now().UTC(),
	}
}

func TestDatabase_Users(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		db, _ := testDatabase(t)

		user := testUser(t, "alice", vaultDomain.RoleAdmin)
		require.NoError(t, db.CreateUser(ctx, user))

		got, err := db.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.Username, got.Username)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
		assert.Equal(t, vaultDomain.RoleAdmin, got.Role)
	})

	t.Run("usernames are case sensitive", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateUser(ctx, testUser(t, "alice", vaultDomain.RoleAdmin)))
		require.NoError(t, db.CreateUser(ctx, testUser(t, "Alice", vaultDomain.RoleUser)))

		_, err := db.GetUser(ctx, "ALICE")
		assert.ErrorIs(t, err, vaultDomain.ErrUserNotFound)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateUser(ctx, testUser(t, "alice", vaultDomain.RoleAdmin)))
		err := db.CreateUser(ctx, testUser(t, "alice", vaultDomain.RoleUser))
		assert.ErrorIs(t, err, vaultDomain.ErrUserAlreadyExists)
	})

	t.Run("delete last admin rejected", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateUser(ctx, testUser(t, "root", vaultDomain.RoleAdmin)))
		require.NoError(t, db.CreateUser(ctx, testUser(t, "bob", vaultDomain.RoleUser)))

		err := db.DeleteUser(ctx, "root")
		assert.ErrorIs(t, err, vaultDomain.ErrLastAdmin)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)

		// With a second admin the delete goes through.
		require.NoError(t, db.CreateUser(ctx, testUser(t, "carol", vaultDomain.RoleAdmin)))
		require.NoError(t, db.DeleteUser(ctx, "root"))
	})

	t.Run("demote last admin rejected", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateUser(ctx, testUser(t, "root", vaultDomain.RoleAdmin)))

		demoted := testUser(t, "root", vaultDomain.RoleUser)
		err := db.UpdateUser(ctx, demoted)
		assert.ErrorIs(t, err, vaultDomain.ErrLastAdmin)

		got, err := db.GetUser(ctx, "root")
		require.NoError(t, err)
		assert.Equal(t, vaultDomain.RoleAdmin, got.Role)
	})

	t.Run("list ordered by username", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateUser(ctx, testUser(t, "carol", vaultDomain.RoleAdmin)))
		require.NoError(t, db.CreateUser(ctx, testUser(t, "alice", vaultDomain.RoleUser)))

		users, err := db.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "carol", users[1].Username)
	})

	t.Run("returned user is a copy", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateUser(ctx, testUser(t, "alice", vaultDomain.RoleAdmin)))

		got, err := db.GetUser(ctx, "alice")
		require.NoError(t, err)
		got.PasswordHash = "mutated"

		again, err := db.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.PasswordHash)
	})
}

func TestDatabase_Secrets(t *testing.T) {
	ctx := context.Background()

	t.Run("put creates vault implicitly", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "password")))

		vault, err := db.GetVault(ctx, "db")
		require.NoError(t, err)
		assert.Len(t, vault.Secrets, 1)
	})

	t.Run("overwrite replaces record and keeps creation time", func(t *testing.T) {
		db, _ := testDatabase(t)

		first := testSecret(t, "password")
		first.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		first.UpdatedAt = first.CreatedAt
		require.NoError(t, db.PutSecret(ctx, "db", first))

		second := testSecret(t, "password")
		second.Record.Ciphertext = []byte("new-ciphertext")
		require.NoError(t, db.PutSecret(ctx, "db", second))

		got, err := db.GetSecret(ctx, "db", "password")
		require.NoError(t, err)
		assert.Equal(t, []byte("new-ciphertext"), got.Record.Ciphertext)
		assert.Equal(t, first.CreatedAt, got.CreatedAt)
		assert.Equal(t, second.UpdatedAt, got.UpdatedAt)
	})

	t.Run("get from unknown vault", func(t *testing.T) {
		db, _ := testDatabase(t)

		_, err := db.GetSecret(ctx, "missing", "password")
		assert.ErrorIs(t, err, vaultDomain.ErrVaultNotFound)
	})

	t.Run("delete keeps empty vault", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "password")))
		require.NoError(t, db.DeleteSecret(ctx, "db", "password"))

		_, err := db.GetSecret(ctx, "db", "password")
		assert.ErrorIs(t, err, vaultDomain.ErrSecretNotFound)
		_, err = db.GetVault(ctx, "db")
		assert.NoError(t, err)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "zeta")))
		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "alpha")))

		secrets, err := db.ListSecrets(ctx, "db")
		require.NoError(t, err)
		require.Len(t, secrets, 2)
		assert.Equal(t, "alpha", secrets[0].Name)
		assert.Equal(t, "zeta", secrets[1].Name)
	})
}

func TestDatabase_AccessKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("create and global lookup", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateAccessKey(ctx, testAccessKey(t, "AKID1", "db")))

		got, err := db.GetAccessKey(ctx, "AKID1")
		require.NoError(t, err)
		assert.Equal(t, "db", got.VaultName)
		assert.True(t, db.HasAccessKeyID(ctx, "AKID1"))
	})

	t.Run("key id unique across vaults", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateAccessKey(ctx, testAccessKey(t, "AKID1", "db")))
		err := db.CreateAccessKey(ctx, testAccessKey(t, "AKID1", "other"))
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("update changes permissions only", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateAccessKey(ctx, testAccessKey(t, "AKID1", "db")))

		updated := testAccessKey(t, "AKID1", "db")
		updated.Permissions = vaultDomain.Capabilities{
			vaultDomain.CapabilityListSecrets,
			vaultDomain.CapabilityDecryptSecrets,
		}
		require.NoError(t, db.UpdateAccessKey(ctx, updated))

		got, err := db.GetAccessKey(ctx, "AKID1")
		require.NoError(t, err)
		assert.True(t, got.Permissions.Has(vaultDomain.CapabilityDecryptSecrets))
	})

	t.Run("delete vault cascades to keys", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.CreateAccessKey(ctx, testAccessKey(t, "AKID1", "db")))
		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "password")))
		require.NoError(t, db.DeleteVault(ctx, "db"))

		_, err := db.GetAccessKey(ctx, "AKID1")
		assert.ErrorIs(t, err, vaultDomain.ErrAccessKeyNotFound)
		_, err = db.GetVault(ctx, "db")
		assert.ErrorIs(t, err, vaultDomain.ErrVaultNotFound)

		// A cascaded key ID becomes available again.
		require.NoError(t, db.CreateAccessKey(ctx, testAccessKey(t, "AKID1", "new")))
	})
}

func TestDatabase_Persistence(t *testing.T) {
	ctx := context.Background()

	t.Run("reload round trip", func(t *testing.T) {
		db, path := testDatabase(t)

		require.NoError(t, db.CreateUser(ctx, testUser(t, "root", vaultDomain.RoleAdmin)))
		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "password")))
		require.NoError(t, db.CreateAccessKey(ctx, testAccessKey(t, "AKID1", "db")))

		reloaded, fresh, err := Open(path)
		require.NoError(t, err)
		assert.False(t, fresh)

		user, err := reloaded.GetUser(ctx, "root")
		require.NoError(t, err)
		assert.Equal(t, vaultDomain.RoleAdmin, user.Role)

		secret, err := reloaded.GetSecret(ctx, "db", "password")
		require.NoError(t, err)
		assert.Equal(t, []byte("ciphertext"), secret.Record.Ciphertext)

		key, err := reloaded.GetAccessKey(ctx, "AKID1")
		require.NoError(t, err)
		assert.Equal(t, "db", key.VaultName)
		assert.True(t, key.Permissions.Has(vaultDomain.CapabilityListSecrets))
	})

	t.Run("stale temp file discarded on open", func(t *testing.T) {
		db, path := testDatabase(t)
		require.NoError(t, db.CreateUser(ctx, testUser(t, "root", vaultDomain.RoleAdmin)))

		temp := path + tempSuffix
		require.NoError(t, os.WriteFile(temp, []byte("half-written"), 0o600))

		reloaded, fresh, err := Open(path)
		require.NoError(t, err)
		assert.False(t, fresh)

		_, err = reloaded.GetUser(ctx, "root")
		assert.NoError(t, err)
		_, err = os.Stat(temp)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("corrupt payload rejected", func(t *testing.T) {
		db, path := testDatabase(t)
		require.NoError(t, db.CreateUser(ctx, testUser(t, "root", vaultDomain.RoleAdmin)))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		content[len(content)-1] ^= 0xff
		require.NoError(t, os.WriteFile(path, content, 0o600))

		_, _, err = Open(path)
		assert.ErrorIs(t, err, apperrors.ErrCorruptDatabase)
	})

	t.Run("wrong magic rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vaulty.db")
		require.NoError(t, os.WriteFile(path, []byte("not a database file"), 0o600))

		_, _, err := Open(path)
		assert.ErrorIs(t, err, apperrors.ErrCorruptDatabase)
	})

	t.Run("unsupported version rejected", func(t *testing.T) {
		db, path := testDatabase(t)
		require.NoError(t, db.CreateUser(ctx, testUser(t, "root", vaultDomain.RoleAdmin)))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		content[len(snapshotMagic)] = 99
		require.NoError(t, os.WriteFile(path, content, 0o600))

		_, _, err = Open(path)
		assert.ErrorIs(t, err, apperrors.ErrUnsupportedVersion)
	})

	t.Run("failed save rolls back the mutation", func(t *testing.T) {
		db, path := testDatabase(t)
		require.NoError(t, db.CreateUser(ctx, testUser(t, "root", vaultDomain.RoleAdmin)))

		// A directory squatting on the temp path makes the save fail.
		temp := path + tempSuffix
		require.NoError(t, os.Mkdir(temp, 0o700))
		t.Cleanup(func() { _ = os.Remove(temp) })

		err := db.CreateUser(ctx, testUser(t, "bob", vaultDomain.RoleUser))
		require.Error(t, err)

		require.NoError(t, os.Remove(temp))
		_, err = db.GetUser(ctx, "bob")
		assert.ErrorIs(t, err, vaultDomain.ErrUserNotFound)
	})
}

func TestDatabase_RewrapSecrets(t *testing.T) {
	ctx := context.Background()

	t.Run("transforms every record", func(t *testing.T) {
		db, path := testDatabase(t)

		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "password")))
		require.NoError(t, db.PutSecret(ctx, "app", testSecret(t, "token")))

		count, err := db.RewrapSecrets(ctx, func(secret *vaultDomain.Secret) (*vaultDomain.Secret, error) {
			secret.Record.WrappedKey = []byte("rewrapped")
			return secret, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		reloaded, _, err := Open(path)
		require.NoError(t, err)
		secret, err := reloaded.GetSecret(ctx, "db", "password")
		require.NoError(t, err)
		assert.Equal(t, []byte("rewrapped"), secret.Record.WrappedKey)
	})

	t.Run("any failure leaves all records untouched", func(t *testing.T) {
		db, _ := testDatabase(t)

		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "password")))
		require.NoError(t, db.PutSecret(ctx, "db", testSecret(t, "token")))

		calls := 0
		_, err := db.RewrapSecrets(ctx, func(secret *vaultDomain.Secret) (*vaultDomain.Secret, error) {
			calls++
			if calls == 2 {
				return nil, apperrors.ErrCrypto
			}
			secret.Record.WrappedKey = []byte("rewrapped")
			return secret, nil
		})
		assert.ErrorIs(t, err, apperrors.ErrCrypto)

		secret, err := db.GetSecret(ctx, "db", "password")
		require.NoError(t, err)
		assert.Equal(t, []byte("wrapped-key"), secret.Record.WrappedKey)
	})
}
