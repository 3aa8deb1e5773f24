package domain

import (
	"time"
)

// AccessKey represents a non-human credential scoped to exactly one vault.
//
// The secret access key is never stored: only the node's ECDSA signature over
// it is. Presentation of the key is verified against the signature, so a
// leaked database cannot yield usable credentials.
type AccessKey struct {
	// ID is the generated access key identifier, globally unique across all
	// vaults so authentication can look it up without knowing the vault.
	ID string
	// VaultName is the owning vault.
	VaultName string
	// SecretKeySignature is the base64 DER signature over the plaintext
	// secret access key.
	SecretKeySignature string
	// Permissions is the capability set granted to this key.
	Permissions Capabilities
	// SecurityGroups restricts which source addresses may authenticate with
	// this key.
	SecurityGroups SecurityGroups
	CreatedAt      time.Time
}
