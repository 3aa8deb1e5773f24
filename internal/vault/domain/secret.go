package domain

import (
	"time"

	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
)

// Secret represents an encrypted value stored in a vault.
//
// The payload exists only inside Record, the envelope-encrypted form. An
// overwrite replaces the whole record, so a fresh data key and nonce are used
// every time the value changes.
type Secret struct {
	// Name is the unique key within the vault.
	Name string
	// Record is the envelope-encrypted payload.
	Record *cryptoDomain.Record
	// ContentKind tells clients how to interpret the decrypted bytes.
	ContentKind ContentKind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
