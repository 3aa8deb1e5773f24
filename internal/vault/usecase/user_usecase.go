package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	authService "github.com/allisson/vaulty/internal/auth/service"
	appValidation "github.com/allisson/vaulty/internal/validation"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// RootUsername is the bootstrap admin created on first run.
const RootUsername = "root"

// userUseCase implements UserUseCase.
type userUseCase struct {
	userRepo           UserRepository
	passwords          authService.PasswordService
	rootPasswordLength int
}

// NewUserUseCase creates a UserUseCase. rootPasswordLength controls the
// generated bootstrap password.
func NewUserUseCase(
	userRepo UserRepository,
	passwords authService.PasswordService,
	rootPasswordLength int,
) UserUseCase {
	return &userUseCase{
		userRepo:           userRepo,
		passwords:          passwords,
		rootPasswordLength: rootPasswordLength,
	}
}

func (u *userUseCase) validateCreateUserInput(input *CreateUserInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.EntityName,
			validation.Length(1, 255).Error("username must be between 1 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Create registers a new user with a hashed password.
func (u *userUseCase) Create(
	ctx context.Context,
	input *CreateUserInput,
) (*vaultDomain.User, error) {
	if err := u.validateCreateUserInput(input); err != nil {
		return nil, err
	}
	role, err := vaultDomain.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	groups, err := vaultDomain.ParseSecurityGroups(input.SecurityGroups)
	if err != nil {
		return nil, err
	}

	digest, err := u.passwords.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &vaultDomain.User{
		Username:       input.Username,
		PasswordHash:   digest,
		Role:           role,
		SecurityGroups: groups,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := u.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get retrieves a user by username.
func (u *userUseCase) Get(ctx context.Context, username string) (*vaultDomain.User, error) {
	return u.userRepo.GetUser(ctx, username)
}

// List returns all users.
func (u *userUseCase) List(ctx context.Context) ([]*vaultDomain.User, error) {
	return u.userRepo.ListUsers(ctx)
}

// Delete removes a user.
func (u *userUseCase) Delete(ctx context.Context, username string) error {
	return u.userRepo.DeleteUser(ctx, username)
}

// ChangePassword replaces a user's password hash.
func (u *userUseCase) ChangePassword(ctx context.Context, username, password string) error {
	err := validation.Validate(password,
		validation.Required.Error("password is required"),
		validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	user, err := u.userRepo.GetUser(ctx, username)
	if err != nil {
		return err
	}

	digest, err := u.passwords.HashPassword(password)
	if err != nil {
		return err
	}

	user.PasswordHash = digest
	user.UpdatedAt = time.Now().UTC()
	return u.userRepo.UpdateUser(ctx, user)
}

// ChangeSecurityGroups replaces a user's CIDR allow-list.
func (u *userUseCase) ChangeSecurityGroups(
	ctx context.Context,
	username string,
	cidrs []string,
) error {
	groups, err := vaultDomain.ParseSecurityGroups(cidrs)
	if err != nil {
		return err
	}

	user, err := u.userRepo.GetUser(ctx, username)
	if err != nil {
		return err
	}

	user.SecurityGroups = groups
	user.UpdatedAt = time.Now().UTC()
	return u.userRepo.UpdateUser(ctx, user)
}

// Promote grants the admin role.
func (u *userUseCase) Promote(ctx context.Context, username string) error {
	return u.changeRole(ctx, username, vaultDomain.RoleAdmin)
}

// Demote revokes the admin role.
func (u *userUseCase) Demote(ctx context.Context, username string) error {
	return u.changeRole(ctx, username, vaultDomain.RoleUser)
}

func (u *userUseCase) changeRole(
	ctx context.Context,
	username string,
	role vaultDomain.Role,
) error {
	user, err := u.userRepo.GetUser(ctx, username)
	if err != nil {
		return err
	}
	if user.Role == role {
		return nil
	}

	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	return u.userRepo.UpdateUser(ctx, user)
}

// Bootstrap creates the root user restricted to loopback sources. The
// generated password is returned so the caller can surface it to the
// operator exactly once.
func (u *userUseCase) Bootstrap(ctx context.Context) (*BootstrapOutput, error) {
	password, err := u.passwords.GeneratePassword(u.rootPasswordLength)
	if err != nil {
		return nil, err
	}

	digest, err := u.passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &vaultDomain.User{
		Username:       RootUsername,
		PasswordHash:   digest,
		Role:           vaultDomain.RoleAdmin,
		SecurityGroups: vaultDomain.LoopbackSecurityGroups(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := u.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return &BootstrapOutput{
		Username:      RootUsername,
		PlainPassword: password,
	}, nil
}
