package command

import (
	"context"
	"encoding/base64"

	apperrors "github.com/allisson/vaulty/internal/errors"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
	vaultUsecase "github.com/allisson/vaulty/internal/vault/usecase"
)

// Dispatcher executes structured commands on behalf of an authenticated
// user. User management ops require the admin role; a user may always change
// their own password.
type Dispatcher struct {
	users   vaultUsecase.UserUseCase
	vaults  vaultUsecase.VaultUseCase
	secrets vaultUsecase.SecretUseCase
	keys    vaultUsecase.AccessKeyUseCase
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	users vaultUsecase.UserUseCase,
	vaults vaultUsecase.VaultUseCase,
	secrets vaultUsecase.SecretUseCase,
	keys vaultUsecase.AccessKeyUseCase,
) *Dispatcher {
	return &Dispatcher{
		users:   users,
		vaults:  vaults,
		secrets: secrets,
		keys:    keys,
	}
}

// Execute runs one command as the given user.
func (d *Dispatcher) Execute(
	ctx context.Context,
	user *vaultDomain.User,
	req *Request,
) (*Response, error) {
	op, err := ParseOp(req.Op)
	if err != nil {
		return nil, err
	}

	if op.adminOnly() && !user.IsAdmin() {
		// Changing your own password is the one self-service user op.
		selfService := op == OpUserChangePassword && req.Username == user.Username
		if !selfService {
			return nil, apperrors.ErrForbidden
		}
	}

	resp := &Response{Op: string(op)}
	switch op {
	case OpUserInsert:
		created, err := d.users.Create(ctx, &vaultUsecase.CreateUserInput{
			Username:       req.Username,
			Password:       req.Password,
			Role:           req.Role,
			SecurityGroups: req.SecurityGroups,
		})
		if err != nil {
			return nil, err
		}
		resp.User = newUserInfo(created)

	case OpUserDelete:
		if err := d.users.Delete(ctx, req.Username); err != nil {
			return nil, err
		}

	case OpUserFind:
		found, err := d.users.Get(ctx, req.Username)
		if err != nil {
			return nil, err
		}
		resp.User = newUserInfo(found)

	case OpUserList:
		users, err := d.users.List(ctx)
		if err != nil {
			return nil, err
		}
		resp.Users = make([]*UserInfo, 0, len(users))
		for _, u := range users {
			resp.Users = append(resp.Users, newUserInfo(u))
		}

	case OpUserChangePassword:
		if err := d.users.ChangePassword(ctx, req.Username, req.Password); err != nil {
			return nil, err
		}

	case OpUserChangeSg:
		if err := d.users.ChangeSecurityGroups(ctx, req.Username, req.SecurityGroups); err != nil {
			return nil, err
		}

	case OpUserPromote:
		if err := d.users.Promote(ctx, req.Username); err != nil {
			return nil, err
		}

	case OpUserDemote:
		if err := d.users.Demote(ctx, req.Username); err != nil {
			return nil, err
		}

	case OpVaultFind:
		vault, err := d.vaults.Get(ctx, req.Vault)
		if err != nil {
			return nil, err
		}
		resp.Vault = newVaultInfo(vault)

	case OpVaultDelete:
		if err := d.vaults.Delete(ctx, req.Vault); err != nil {
			return nil, err
		}

	case OpVaultList:
		vaults, err := d.vaults.List(ctx)
		if err != nil {
			return nil, err
		}
		resp.Vaults = make([]*VaultInfo, 0, len(vaults))
		for _, v := range vaults {
			resp.Vaults = append(resp.Vaults, newVaultInfo(v))
		}

	case OpAccessInsert:
		out, err := d.keys.Create(ctx, &vaultUsecase.CreateAccessKeyInput{
			Vault:          req.Vault,
			Permissions:    req.Permissions,
			SecurityGroups: req.SecurityGroups,
		})
		if err != nil {
			return nil, err
		}
		resp.AccessKey = newAccessKeyInfo(out.Key)
		resp.PlainSecretKey = out.PlainSecretKey

	case OpAccessFind:
		key, err := d.keys.Get(ctx, req.AccessKeyID)
		if err != nil {
			return nil, err
		}
		resp.AccessKey = newAccessKeyInfo(key)

	case OpAccessDelete:
		if err := d.keys.Delete(ctx, req.AccessKeyID); err != nil {
			return nil, err
		}

	case OpAccessList:
		keys, err := d.keys.List(ctx, req.Vault)
		if err != nil {
			return nil, err
		}
		resp.AccessKeys = make([]*AccessKeyInfo, 0, len(keys))
		for _, key := range keys {
			resp.AccessKeys = append(resp.AccessKeys, newAccessKeyInfo(key))
		}

	case OpAccessChangePermission:
		if err := d.keys.ChangePermissions(ctx, req.AccessKeyID, req.Permissions); err != nil {
			return nil, err
		}

	case OpAccessChangeSg:
		if err := d.keys.ChangeSecurityGroups(ctx, req.AccessKeyID, req.SecurityGroups); err != nil {
			return nil, err
		}

	case OpSecretInsert:
		value, err := base64.StdEncoding.DecodeString(req.Value)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "value must be base64-encoded")
		}
		err = d.secrets.Put(ctx, &vaultUsecase.PutSecretInput{
			Vault:       req.Vault,
			Name:        req.Secret,
			Value:       value,
			ContentKind: req.ContentKind,
		})
		if err != nil {
			return nil, err
		}

	case OpSecretFind:
		out, err := d.secrets.Get(ctx, req.Vault, req.Secret)
		if err != nil {
			return nil, err
		}
		resp.Secret = &SecretInfo{
			Name:        out.Name,
			ContentKind: string(out.ContentKind),
			Value:       base64.StdEncoding.EncodeToString(out.Value),
			CreatedAt:   out.CreatedAt,
			UpdatedAt:   out.UpdatedAt,
		}

	case OpSecretDelete:
		if err := d.secrets.Delete(ctx, req.Vault, req.Secret); err != nil {
			return nil, err
		}

	case OpSecretList:
		metadata, err := d.secrets.List(ctx, req.Vault)
		if err != nil {
			return nil, err
		}
		resp.Secrets = make([]*SecretInfo, 0, len(metadata))
		for _, m := range metadata {
			resp.Secrets = append(resp.Secrets, &SecretInfo{
				Name:        m.Name,
				ContentKind: string(m.ContentKind),
				CreatedAt:   m.CreatedAt,
				UpdatedAt:   m.UpdatedAt,
			})
		}
	}

	return resp, nil
}
