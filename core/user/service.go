package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	orderingFields = map[string]bool{"id": true, "username": true, "role": true, "created_at": true}
)

type (
	Repository interface {
		// CreateUser inserts usr and returns it with its ID.
		// A username uniqueness violation is reported as ErrUsernameExists.
		CreateUser(ctx context.Context, usr User) (User, error)
		CountUsers(ctx context.Context) (int, error)
		QueryUsers(ctx context.Context, ordering []core.DBOrdering) ([]User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		// UpdateUser overwrites the role, email & password hash of the user with usr.ID.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()
	return &Service{repo: repo, validate: validate}
}

// Authenticate checks the (username, password, role) triple and returns the matching Identity.
// Any mismatch yields ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string, role Role) (Identity, error) {
	uname = core.CleanString(uname)
	if uname == "" || pwd == "" || !role.IsValid() {
		return Identity{}, ErrInvalidCredentials
	}

	usr, err := svc.repo.GetUserByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, errors.Wrap(err, "finding user by username")
	}
	if usr.Role != role {
		return Identity{}, ErrInvalidCredentials
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return usr.Identity(), nil
}

// Create validates nu and creates a Student or Teacher account.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	usr := User{
		Username:  nu.Username,
		Role:      nu.Role,
		Email:     nu.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return User{}, core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// SeedAdmin creates an Admin account if no user exists yet.
// It reports whether the Admin was created.
func (svc *Service) SeedAdmin(ctx context.Context, uname, pwd string) (bool, error) {
	uname = core.CleanString(uname)
	if uname == "" || pwd == "" {
		return false, core.NewValidationError(errors.New("admin username and password are required"))
	}

	cnt, err := svc.repo.CountUsers(ctx)
	if err != nil {
		return false, errors.Wrap(err, "counting users")
	}
	if cnt > 0 {
		return false, nil
	}

	usr := User{Username: uname, Role: RoleAdmin, CreatedAt: time.Now().UTC()}
	if err = usr.SetPassword(pwd); err != nil {
		return false, errors.Wrap(err, "hashing password")
	}
	if _, err = svc.repo.CreateUser(ctx, usr); err != nil {
		// another instance seeded concurrently
		if errors.Cause(err) == ErrUsernameExists {
			return false, nil
		}
		return false, errors.Wrap(err, "creating admin")
	}
	return true, nil
}

// Query returns all users; ordering fields are limited to id, username, role & created_at.
func (svc *Service) Query(ctx context.Context, ordering []core.DBOrdering) ([]User, error) {
	for _, ord := range ordering {
		if !orderingFields[ord.Field] {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: "invalid ordering field: " + ord.Field})
		}
	}
	return svc.repo.QueryUsers(ctx, ordering)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname))
}

// ResetPassword sets a new password for the user with the given username.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) error {
	if strings.TrimSpace(pwd) == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: "this field is required"})
	}
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

// Upsert updates or creates a user with any role, bypassing the API restrictions.
// It is meant for operators with direct store access (admin CLI).
func (svc *Service) Upsert(ctx context.Context, uname, pwd string, role Role, email string) (User, error) {
	uname = core.CleanString(uname)
	if uname == "" || pwd == "" {
		return User{}, core.NewValidationError(errors.New("username and password are required"))
	}
	if err := svc.validate.Var(role, "required,"+userRoleTag); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUserByUsername(ctx, uname)
	exists := err == nil
	if err != nil && errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if !exists {
		usr = User{Username: uname, CreatedAt: time.Now().UTC()}
	}
	usr.Role = role
	usr.Email = core.CleanString(email, true /* lower */)
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	if exists {
		return svc.repo.UpdateUser(ctx, usr)
	}
	return svc.repo.CreateUser(ctx, usr)
}
