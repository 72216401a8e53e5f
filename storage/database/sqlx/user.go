package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/user"
)

const userColumns = "id, username, password_hash, role, email, created_at"

var userOrderingColumns = map[string]string{
	"id":         "id",
	"username":   "username",
	"role":       "role",
	"created_at": "created_at",
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (username, password_hash, role, email, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := repo.exec.QueryRowxContext(ctx, q, usr.Username, usr.PasswordHash, usr.Role, usr.Email, usr.CreatedAt.UTC()).Scan(&usr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) CountUsers(ctx context.Context) (int, error) {
	var cnt int
	if err := sqlx.GetContext(ctx, repo.exec, &cnt, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return cnt, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, ordering []core.DBOrdering) ([]user.User, error) {
	orderBy := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		col, ok := userOrderingColumns[ord.Field]
		if !ok {
			return nil, errors.Errorf("unknown ordering field %q", ord.Field)
		}
		orderBy = append(orderBy, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	orderBy = append(orderBy, "id ASC")

	users := make([]user.User, 0)
	q := "SELECT " + userColumns + " FROM users ORDER BY " + strings.Join(orderBy, ", ")
	if err := sqlx.SelectContext(ctx, repo.exec, &users, q); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var usr user.User
	q := "SELECT " + userColumns + " FROM users WHERE username = $1"
	if err := sqlx.GetContext(ctx, repo.exec, &usr, q, username); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "selecting user by username")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	var updated user.User
	q := `UPDATE users SET role = $2, email = $3, password_hash = COALESCE($4, password_hash)
		WHERE id = $1 RETURNING ` + userColumns
	if err := sqlx.GetContext(ctx, repo.exec, &updated, q, usr.ID, usr.Role, usr.Email, null.NewBytes(usr.PasswordHash, len(usr.PasswordHash) > 0)); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return updated, nil
}
