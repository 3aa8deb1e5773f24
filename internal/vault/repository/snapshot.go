package repository

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	apperrors "github.com/allisson/vaulty/internal/errors"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// On-disk layout: 4-byte magic, 1-byte format version, 32-byte SHA-256 of
// the payload, then the gob-encoded payload. The checksum covers the payload
// only; a mismatch means a torn or tampered file and the process refuses to
// serve.
const (
	snapshotMagic   = "VLTY"
	snapshotVersion = 1
	headerSize      = len(snapshotMagic) + 1 + sha256.Size

	tempSuffix = ".tmp"
)

// The snapshot records are a stable wire schema decoupled from the domain
// structs: enums and CIDR ranges are stored as their canonical strings and
// transient state is never written.
type snapshot struct {
	Users  []userRecord
	Vaults []vaultRecord
}

type userRecord struct {
	Username       string
	PasswordHash   string
	Role           string
	SecurityGroups []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type vaultRecord struct {
	Name       string
	Secrets    []secretRecord
	AccessKeys []accessKeyRecord
	CreatedAt  time.Time
}

type secretRecord struct {
	Name        string
	WrappedKey  []byte
	Algorithm   string
	Nonce       []byte
	Ciphertext  []byte
	Tag         []byte
	ContentKind string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type accessKeyRecord struct {
	ID                 string
	SecretKeySignature string
	Permissions        []string
	SecurityGroups     []string
	CreatedAt          time.Time
}

// save serializes the graph and writes it crash-safely. Callers must hold
// the write lock.
func (d *Database) save() error {
	encoded, err := encodeSnapshot(d.toSnapshot())
	if err != nil {
		return err
	}
	return writeFileAtomic(d.path, encoded)
}

// loadFromDisk populates the graph from the snapshot file. A stale temp file
// from an interrupted save is discarded first. Returns true when no snapshot
// exists yet.
func (d *Database) loadFromDisk() (bool, error) {
	_ = os.Remove(d.path + tempSuffix)

	content, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, apperrors.Wrapf(err, "failed to read database file %s", d.path)
	}

	snap, err := decodeSnapshot(content)
	if err != nil {
		return false, err
	}
	if err := d.fromSnapshot(snap); err != nil {
		return false, err
	}
	return false, nil
}

func (d *Database) toSnapshot() *snapshot {
	snap := &snapshot{}

	for _, username := range sortedKeys(d.users) {
		user := d.users[username]
		snap.Users = append(snap.Users, userRecord{
			Username:       user.Username,
			PasswordHash:   user.PasswordHash,
			Role:           string(user.Role),
			SecurityGroups: user.SecurityGroups.Strings(),
			CreatedAt:      user.CreatedAt,
			UpdatedAt:      user.UpdatedAt,
		})
	}

	for _, vaultName := range sortedKeys(d.vaults) {
		vault := d.vaults[vaultName]
		record := vaultRecord{Name: vault.Name, CreatedAt: vault.CreatedAt}

		for _, name := range sortedKeys(vault.Secrets) {
			secret := vault.Secrets[name]
			record.Secrets = append(record.Secrets, secretRecord{
				Name:        secret.Name,
				WrappedKey:  secret.Record.WrappedKey,
				Algorithm:   string(secret.Record.Algorithm),
				Nonce:       secret.Record.Nonce,
				Ciphertext:  secret.Record.Ciphertext,
				Tag:         secret.Record.Tag,
				ContentKind: string(secret.ContentKind),
				CreatedAt:   secret.CreatedAt,
				UpdatedAt:   secret.UpdatedAt,
			})
		}

		for _, id := range sortedKeys(vault.AccessKeys) {
			key := vault.AccessKeys[id]
			record.AccessKeys = append(record.AccessKeys, accessKeyRecord{
				ID:                 key.ID,
				SecretKeySignature: key.SecretKeySignature,
				Permissions:        capabilityNames(key.Permissions),
				SecurityGroups:     key.SecurityGroups.Strings(),
				CreatedAt:          key.CreatedAt,
			})
		}

		snap.Vaults = append(snap.Vaults, record)
	}

	return snap
}

func (d *Database) fromSnapshot(snap *snapshot) error {
	for _, record := range snap.Users {
		role, err := vaultDomain.ParseRole(record.Role)
		if err != nil {
			return corrupt(err)
		}
		groups, err := vaultDomain.ParseSecurityGroups(record.SecurityGroups)
		if err != nil {
			return corrupt(err)
		}

		d.users[record.Username] = &vaultDomain.User{
			Username:       record.Username,
			PasswordHash:   record.PasswordHash,
			Role:           role,
			SecurityGroups: groups,
			CreatedAt:      record.CreatedAt,
			UpdatedAt:      record.UpdatedAt,
		}
	}

	for _, record := range snap.Vaults {
		vault := vaultDomain.NewVault(record.Name, record.CreatedAt)

		for _, sr := range record.Secrets {
			algorithm, err := cryptoDomain.ParseAlgorithm(sr.Algorithm)
			if err != nil {
				return corrupt(err)
			}
			kind, err := vaultDomain.ParseContentKind(sr.ContentKind)
			if err != nil {
				return corrupt(err)
			}

			vault.Secrets[sr.Name] = &vaultDomain.Secret{
				Name: sr.Name,
				Record: &cryptoDomain.Record{
					WrappedKey: sr.WrappedKey,
					Algorithm:  algorithm,
					Nonce:      sr.Nonce,
					Ciphertext: sr.Ciphertext,
					Tag:        sr.Tag,
				},
				ContentKind: kind,
				CreatedAt:   sr.CreatedAt,
				UpdatedAt:   sr.UpdatedAt,
			}
		}

		for _, kr := range record.AccessKeys {
			permissions, err := vaultDomain.ParseCapabilities(kr.Permissions)
			if err != nil {
				return corrupt(err)
			}
			groups, err := vaultDomain.ParseSecurityGroups(kr.SecurityGroups)
			if err != nil {
				return corrupt(err)
			}
			if _, ok := d.keyIndex[kr.ID]; ok {
				return corrupt(apperrors.New("duplicate access key id"))
			}

			vault.AccessKeys[kr.ID] = &vaultDomain.AccessKey{
				ID:                 kr.ID,
				VaultName:          record.Name,
				SecretKeySignature: kr.SecretKeySignature,
				Permissions:        permissions,
				SecurityGroups:     groups,
				CreatedAt:          kr.CreatedAt,
			}
			d.keyIndex[kr.ID] = record.Name
		}

		d.vaults[record.Name] = vault
	}

	return nil
}

func encodeSnapshot(snap *snapshot) ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(snap); err != nil {
		return nil, apperrors.Wrap(err, "failed to encode database snapshot")
	}

	checksum := sha256.Sum256(payload.Bytes())

	out := make([]byte, 0, headerSize+payload.Len())
	out = append(out, snapshotMagic...)
	out = append(out, snapshotVersion)
	out = append(out, checksum[:]...)
	out = append(out, payload.Bytes()...)
	return out, nil
}

func decodeSnapshot(content []byte) (*snapshot, error) {
	if len(content) < headerSize || string(content[:len(snapshotMagic)]) != snapshotMagic {
		return nil, apperrors.ErrCorruptDatabase
	}

	version := content[len(snapshotMagic)]
	if version != snapshotVersion {
		return nil, apperrors.ErrUnsupportedVersion
	}

	checksumStart := len(snapshotMagic) + 1
	payload := content[headerSize:]
	checksum := sha256.Sum256(payload)
	if !bytes.Equal(checksum[:], content[checksumStart:headerSize]) {
		return nil, apperrors.ErrCorruptDatabase
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&snap); err != nil {
		return nil, apperrors.ErrCorruptDatabase
	}
	return &snap, nil
}

// writeFileAtomic writes data to a temp file in the same directory, flushes
// it, then renames over the destination. The canonical path never holds a
// half-written file.
func writeFileAtomic(path string, data []byte) error {
	temp := path + tempSuffix

	f, err := os.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return apperrors.Wrapf(err, "failed to create temp file %s", temp)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(temp)
		return apperrors.Wrapf(err, "failed to write temp file %s", temp)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(temp)
		return apperrors.Wrapf(err, "failed to sync temp file %s", temp)
	}
	if err := f.Close(); err != nil {
		os.Remove(temp)
		return apperrors.Wrapf(err, "failed to close temp file %s", temp)
	}

	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return apperrors.Wrapf(err, "failed to replace database file %s", path)
	}

	// Persist the rename itself. Not all filesystems support syncing a
	// directory, so failures here are ignored.
	if dir, err := os.Open(filepath.Dir(path)); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return nil
}

func capabilityNames(capabilities vaultDomain.Capabilities) []string {
	out := make([]string, 0, len(capabilities))
	for _, capability := range capabilities {
		out = append(out, string(capability))
	}
	return out
}

func corrupt(err error) error {
	return apperrors.Wrap(apperrors.ErrCorruptDatabase, err.Error())
}
