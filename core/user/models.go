package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/kazi/core"
)

// Role is one of the closed set of user roles.
type Role string

// Roles
const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
	RoleAdmin   Role = "Admin"
)

var (
	Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

	// CreatableRoles are the roles an Admin may grant through the API.
	CreatableRoles = []Role{RoleStudent, RoleTeacher}
)

func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) IsCreatable() bool {
	for _, role := range CreatableRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Role         Role      `json:"role" db:"role"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

func (u *User) Identity() Identity {
	return Identity{Username: u.Username, Role: u.Role}
}

// Identity is the authenticated (username, role) pair of a session.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (id Identity) IsAdmin() bool   { return id.Role == RoleAdmin }
func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,creatablerole"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = Role(core.CleanString(string(nu.Role)))
	return validate.Struct(nu)
}
