// Package command exposes the structured operation surface consumed by the
// CLI collaborator: user, vault, secret and access key management performed
// by an authenticated user session. Parsing the client-side command syntax
// is the client's job; this package receives already-structured requests.
package command

import (
	apperrors "github.com/allisson/vaulty/internal/errors"
)

// Op is the closed set of command operations.
type Op string

const (
	OpUserInsert         Op = "user.insert"
	OpUserDelete         Op = "user.delete"
	OpUserFind           Op = "user.find"
	OpUserList           Op = "user.list"
	OpUserChangePassword Op = "user.changePassword"
	OpUserChangeSg       Op = "user.changeSg"
	OpUserPromote        Op = "user.promote"
	OpUserDemote         Op = "user.demote"

	OpVaultFind   Op = "vault.find"
	OpVaultDelete Op = "vault.delete"
	OpVaultList   Op = "vault.list"

	OpAccessInsert           Op = "access.insert"
	OpAccessFind             Op = "access.find"
	OpAccessDelete           Op = "access.delete"
	OpAccessList             Op = "access.list"
	OpAccessChangePermission Op = "access.changePermission"
	OpAccessChangeSg         Op = "access.changeSg"

	OpSecretInsert Op = "secret.insert"
	OpSecretFind   Op = "secret.find"
	OpSecretDelete Op = "secret.delete"
	OpSecretList   Op = "secret.list"
)

// ErrUnknownOp indicates an operation outside the closed set.
var ErrUnknownOp = apperrors.Wrap(apperrors.ErrInvalidInput, "unknown operation")

// ParseOp validates an operation name.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpUserInsert, OpUserDelete, OpUserFind, OpUserList,
		OpUserChangePassword, OpUserChangeSg, OpUserPromote, OpUserDemote,
		OpVaultFind, OpVaultDelete, OpVaultList,
		OpAccessInsert, OpAccessFind, OpAccessDelete, OpAccessList,
		OpAccessChangePermission, OpAccessChangeSg,
		OpSecretInsert, OpSecretFind, OpSecretDelete, OpSecretList:
		return Op(s), nil
	default:
		return "", ErrUnknownOp
	}
}

// adminOnly reports whether the operation manages users and therefore
// requires the admin role.
func (o Op) adminOnly() bool {
	switch o {
	case OpUserInsert, OpUserDelete, OpUserFind, OpUserList,
		OpUserChangePassword, OpUserChangeSg, OpUserPromote, OpUserDemote:
		return true
	default:
		return false
	}
}
