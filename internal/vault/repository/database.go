// Package repository implements the authoritative in-memory object graph and
// its durable single-file persistence. Every successful mutation rewrites the
// snapshot crash-safely before returning, so a process crash loses at most
// the in-flight request.
package repository

import (
	"context"
	"sync"

	apperrors "github.com/allisson/vaulty/internal/errors"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// Database is the single root object owning all users, vaults, secrets and
// access keys for the node's lifetime.
//
// All methods deep-copy on the way in and out, so callers never share memory
// with the graph. Mutations hold the write lock across the validate, apply
// and persist steps; a failed persist rolls the applied change back, so the
// in-memory graph never diverges from the on-disk snapshot.
type Database struct {
	mu     sync.RWMutex
	path   string
	users  map[string]*vaultDomain.User
	vaults map[string]*vaultDomain.Vault
	// keyIndex maps access key ID to owning vault name. IDs are globally
	// unique, so authentication can resolve a key without knowing the vault.
	keyIndex map[string]string
}

// Open loads the database from path, or initializes an empty one when the
// file does not exist. The second return value reports whether the database
// is fresh, which triggers root-user bootstrap in the caller.
func Open(path string) (*Database, bool, error) {
	db := &Database{
		path:     path,
		users:    make(map[string]*vaultDomain.User),
		vaults:   make(map[string]*vaultDomain.Vault),
		keyIndex: make(map[string]string),
	}

	fresh, err := db.loadFromDisk()
	if err != nil {
		return nil, false, err
	}
	return db, fresh, nil
}

// CreateUser inserts a new user. Fails with ErrUserAlreadyExists when the
// username is taken.
func (d *Database) CreateUser(ctx context.Context, user *vaultDomain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.Username]; ok {
		return vaultDomain.ErrUserAlreadyExists
	}

	d.users[user.Username] = cloneUser(user)
	if err := d.save(); err != nil {
		delete(d.users, user.Username)
		return err
	}
	return nil
}

// GetUser retrieves a user by username.
func (d *Database) GetUser(ctx context.Context, username string) (*vaultDomain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[username]
	if !ok {
		return nil, vaultDomain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// ListUsers returns all users ordered by username.
func (d *Database) ListUsers(ctx context.Context) ([]*vaultDomain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*vaultDomain.User, 0, len(d.users))
	for _, username := range sortedKeys(d.users) {
		out = append(out, cloneUser(d.users[username]))
	}
	return out, nil
}

// UpdateUser replaces an existing user's record. Demoting the last admin
// fails with ErrLastAdmin before any change is applied.
func (d *Database) UpdateUser(ctx context.Context, user *vaultDomain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous, ok := d.users[user.Username]
	if !ok {
		return vaultDomain.ErrUserNotFound
	}
	if previous.IsAdmin() && !user.IsAdmin() && d.adminCount() == 1 {
		return vaultDomain.ErrLastAdmin
	}

	d.users[user.Username] = cloneUser(user)
	if err := d.save(); err != nil {
		d.users[user.Username] = previous
		return err
	}
	return nil
}

// DeleteUser removes a user. Deleting the last admin fails with ErrLastAdmin.
func (d *Database) DeleteUser(ctx context.Context, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous, ok := d.users[username]
	if !ok {
		return vaultDomain.ErrUserNotFound
	}
	if previous.IsAdmin() && d.adminCount() == 1 {
		return vaultDomain.ErrLastAdmin
	}

	delete(d.users, username)
	if err := d.save(); err != nil {
		d.users[username] = previous
		return err
	}
	return nil
}

// GetVault retrieves a vault by name, including its secrets and access keys.
func (d *Database) GetVault(ctx context.Context, name string) (*vaultDomain.Vault, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	vault, ok := d.vaults[name]
	if !ok {
		return nil, vaultDomain.ErrVaultNotFound
	}
	return cloneVault(vault), nil
}

// ListVaults returns all vaults ordered by name.
func (d *Database) ListVaults(ctx context.Context) ([]*vaultDomain.Vault, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*vaultDomain.Vault, 0, len(d.vaults))
	for _, name := range sortedKeys(d.vaults) {
		out = append(out, cloneVault(d.vaults[name]))
	}
	return out, nil
}

// DeleteVault removes a vault and cascades to all its secrets and access
// keys.
func (d *Database) DeleteVault(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous, ok := d.vaults[name]
	if !ok {
		return vaultDomain.ErrVaultNotFound
	}

	delete(d.vaults, name)
	for id := range previous.AccessKeys {
		delete(d.keyIndex, id)
	}
	if err := d.save(); err != nil {
		d.vaults[name] = previous
		for id := range previous.AccessKeys {
			d.keyIndex[id] = name
		}
		return err
	}
	return nil
}

// PutSecret inserts or overwrites a secret, creating the vault implicitly.
// An overwrite replaces the whole record and preserves the original creation
// time.
func (d *Database) PutSecret(
	ctx context.Context,
	vaultName string,
	secret *vaultDomain.Secret,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	vault, vaultExisted := d.vaults[vaultName]
	if !vaultExisted {
		vault = vaultDomain.NewVault(vaultName, secret.CreatedAt)
		d.vaults[vaultName] = vault
	}

	stored := cloneSecret(secret)
	previous, secretExisted := vault.Secrets[secret.Name]
	if secretExisted {
		stored.CreatedAt = previous.CreatedAt
	}

	vault.Secrets[secret.Name] = stored
	if err := d.save(); err != nil {
		if secretExisted {
			vault.Secrets[secret.Name] = previous
		} else {
			delete(vault.Secrets, secret.Name)
		}
		if !vaultExisted {
			delete(d.vaults, vaultName)
		}
		return err
	}
	return nil
}

// GetSecret retrieves a secret from a vault.
func (d *Database) GetSecret(
	ctx context.Context,
	vaultName, name string,
) (*vaultDomain.Secret, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	vault, ok := d.vaults[vaultName]
	if !ok {
		return nil, vaultDomain.ErrVaultNotFound
	}
	secret, ok := vault.Secrets[name]
	if !ok {
		return nil, vaultDomain.ErrSecretNotFound
	}
	return cloneSecret(secret), nil
}

// ListSecrets returns a vault's secrets ordered by name.
func (d *Database) ListSecrets(
	ctx context.Context,
	vaultName string,
) ([]*vaultDomain.Secret, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	vault, ok := d.vaults[vaultName]
	if !ok {
		return nil, vaultDomain.ErrVaultNotFound
	}

	out := make([]*vaultDomain.Secret, 0, len(vault.Secrets))
	for _, name := range sortedKeys(vault.Secrets) {
		out = append(out, cloneSecret(vault.Secrets[name]))
	}
	return out, nil
}

// DeleteSecret removes a secret from a vault. The vault itself remains even
// when empty.
func (d *Database) DeleteSecret(ctx context.Context, vaultName, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	vault, ok := d.vaults[vaultName]
	if !ok {
		return vaultDomain.ErrVaultNotFound
	}
	previous, ok := vault.Secrets[name]
	if !ok {
		return vaultDomain.ErrSecretNotFound
	}

	delete(vault.Secrets, name)
	if err := d.save(); err != nil {
		vault.Secrets[name] = previous
		return err
	}
	return nil
}

// CreateAccessKey inserts a new access key, creating the vault implicitly.
// The key ID must be globally unique across all vaults.
func (d *Database) CreateAccessKey(ctx context.Context, key *vaultDomain.AccessKey) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.keyIndex[key.ID]; ok {
		return apperrors.Wrap(apperrors.ErrConflict, "access key id already exists")
	}

	vault, vaultExisted := d.vaults[key.VaultName]
	if !vaultExisted {
		vault = vaultDomain.NewVault(key.VaultName, key.CreatedAt)
		d.vaults[key.VaultName] = vault
	}

	vault.AccessKeys[key.ID] = cloneAccessKey(key)
	d.keyIndex[key.ID] = key.VaultName
	if err := d.save(); err != nil {
		delete(vault.AccessKeys, key.ID)
		delete(d.keyIndex, key.ID)
		if !vaultExisted {
			delete(d.vaults, key.VaultName)
		}
		return err
	}
	return nil
}

// GetAccessKey retrieves an access key by its globally unique ID.
func (d *Database) GetAccessKey(ctx context.Context, id string) (*vaultDomain.AccessKey, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	key, ok := d.lookupAccessKey(id)
	if !ok {
		return nil, vaultDomain.ErrAccessKeyNotFound
	}
	return cloneAccessKey(key), nil
}

// HasAccessKeyID reports whether an access key ID is already taken. Used by
// key generation to retry on the rare collision.
func (d *Database) HasAccessKeyID(ctx context.Context, id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.keyIndex[id]
	return ok
}

// ListAccessKeys returns a vault's access keys ordered by ID.
func (d *Database) ListAccessKeys(
	ctx context.Context,
	vaultName string,
) ([]*vaultDomain.AccessKey, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	vault, ok := d.vaults[vaultName]
	if !ok {
		return nil, vaultDomain.ErrVaultNotFound
	}

	out := make([]*vaultDomain.AccessKey, 0, len(vault.AccessKeys))
	for _, id := range sortedKeys(vault.AccessKeys) {
		out = append(out, cloneAccessKey(vault.AccessKeys[id]))
	}
	return out, nil
}

// UpdateAccessKey replaces an existing access key's record. The key keeps its
// ID and vault; only permissions, security groups and usage metadata change.
func (d *Database) UpdateAccessKey(ctx context.Context, key *vaultDomain.AccessKey) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	vaultName, ok := d.keyIndex[key.ID]
	if !ok {
		return vaultDomain.ErrAccessKeyNotFound
	}
	vault := d.vaults[vaultName]
	previous := vault.AccessKeys[key.ID]

	stored := cloneAccessKey(key)
	stored.VaultName = vaultName
	vault.AccessKeys[key.ID] = stored
	if err := d.save(); err != nil {
		vault.AccessKeys[key.ID] = previous
		return err
	}
	return nil
}

// DeleteAccessKey removes an access key by ID.
func (d *Database) DeleteAccessKey(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	vaultName, ok := d.keyIndex[id]
	if !ok {
		return vaultDomain.ErrAccessKeyNotFound
	}
	vault := d.vaults[vaultName]
	previous := vault.AccessKeys[id]

	delete(vault.AccessKeys, id)
	delete(d.keyIndex, id)
	if err := d.save(); err != nil {
		vault.AccessKeys[id] = previous
		d.keyIndex[id] = vaultName
		return err
	}
	return nil
}

// RewrapSecrets applies fn to every secret's envelope record and persists the
// result as a single mutation. All records are transformed before any is
// swapped in, so a failure on any secret leaves the database untouched. Used
// by the key-rotation maintenance pass.
func (d *Database) RewrapSecrets(
	ctx context.Context,
	fn func(secret *vaultDomain.Secret) (*vaultDomain.Secret, error),
) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	type staged struct {
		vault  string
		secret *vaultDomain.Secret
	}
	var changes []staged

	for _, vaultName := range sortedKeys(d.vaults) {
		vault := d.vaults[vaultName]
		for _, name := range sortedKeys(vault.Secrets) {
			if err := ctx.Err(); err != nil {
				return 0, apperrors.Wrap(err, "rewrap canceled")
			}

			rewrapped, err := fn(cloneSecret(vault.Secrets[name]))
			if err != nil {
				return 0, err
			}
			changes = append(changes, staged{vault: vaultName, secret: rewrapped})
		}
	}

	previous := make([]*vaultDomain.Secret, len(changes))
	for i, change := range changes {
		previous[i] = d.vaults[change.vault].Secrets[change.secret.Name]
		d.vaults[change.vault].Secrets[change.secret.Name] = change.secret
	}
	if err := d.save(); err != nil {
		for i, change := range changes {
			d.vaults[change.vault].Secrets[change.secret.Name] = previous[i]
		}
		return 0, err
	}
	return len(changes), nil
}

func (d *Database) lookupAccessKey(id string) (*vaultDomain.AccessKey, bool) {
	vaultName, ok := d.keyIndex[id]
	if !ok {
		return nil, false
	}
	key, ok := d.vaults[vaultName].AccessKeys[id]
	return key, ok
}

func (d *Database) adminCount() int {
	count := 0
	for _, user := range d.users {
		if user.IsAdmin() {
			count++
		}
	}
	return count
}
