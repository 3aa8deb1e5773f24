// Package domain defines the core entities of the secrets engine: users,
// vaults, secrets and access keys, plus the closed role, capability and
// content-kind sets used for authorization decisions.
package domain

// Role is the closed set of user roles. Authorization for user management is
// a role check, not a capability set.
type Role string

const (
	// RoleAdmin can manage users and perform every vault operation.
	RoleAdmin Role = "admin"

	// RoleUser can authenticate and operate on vaults but not manage users.
	RoleUser Role = "user"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", ErrInvalidRole
	}
}

// Capability is the closed set of permissions grantable to an access key.
type Capability string

const (
	CapabilityListSecrets    Capability = "list-secrets"
	CapabilityCreateSecrets  Capability = "create-secrets"
	CapabilityDeleteSecrets  Capability = "delete-secrets"
	CapabilityDecryptSecrets Capability = "decrypt-secrets"
)

// ParseCapability validates a capability name.
func ParseCapability(s string) (Capability, error) {
	switch Capability(s) {
	case CapabilityListSecrets:
		return CapabilityListSecrets, nil
	case CapabilityCreateSecrets:
		return CapabilityCreateSecrets, nil
	case CapabilityDeleteSecrets:
		return CapabilityDeleteSecrets, nil
	case CapabilityDecryptSecrets:
		return CapabilityDecryptSecrets, nil
	default:
		return "", ErrInvalidCapability
	}
}

// Capabilities is a permission set. Membership is an explicit check over the
// closed Capability set.
type Capabilities []Capability

// Has reports whether the capability is in the set.
func (c Capabilities) Has(capability Capability) bool {
	for _, granted := range c {
		if granted == capability {
			return true
		}
	}
	return false
}

// ParseCapabilities validates a list of capability names, rejecting
// duplicates and empty sets.
func ParseCapabilities(names []string) (Capabilities, error) {
	if len(names) == 0 {
		return nil, ErrInvalidCapability
	}

	out := make(Capabilities, 0, len(names))
	for _, name := range names {
		capability, err := ParseCapability(name)
		if err != nil {
			return nil, err
		}
		if out.Has(capability) {
			return nil, ErrInvalidCapability
		}
		out = append(out, capability)
	}
	return out, nil
}

// ContentKind classifies what a secret payload holds so clients can render
// the decrypted value appropriately.
type ContentKind string

const (
	ContentKindText   ContentKind = "text"
	ContentKindBinary ContentKind = "binary"
	ContentKindFile   ContentKind = "file"
)

// ParseContentKind validates a content kind name.
func ParseContentKind(s string) (ContentKind, error) {
	switch ContentKind(s) {
	case ContentKindText:
		return ContentKindText, nil
	case ContentKindBinary:
		return ContentKindBinary, nil
	case ContentKindFile:
		return ContentKindFile, nil
	default:
		return "", ErrInvalidContentKind
	}
}
