package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.rows))
	for _, u := range repo.db.rows {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) find(username string) (*user.User, bool) {
	for _, u := range repo.db.rows {
		if u.Username == username {
			return u, true
		}
	}
	return nil, false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, exists := repo.find(usr.Username); exists {
		return user.User{}, user.ErrUsernameExists
	}
	repo.db.seq++
	usr.ID = repo.db.seq
	row := usr
	repo.db.rows = append(repo.db.rows, &row)
	return usr, nil
}

func (repo *userRepository) CountUsers(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.rows), nil
}

func (repo *userRepository) QueryUsers(_ context.Context, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	users := repo.query()
	repo.db.mutex.RUnlock()

	if len(ordering) > 0 {
		sort.SliceStable(users, func(i, j int) bool {
			for _, ord := range ordering {
				if c := compareUsers(users[i], users[j], ord.Field); c != 0 {
					if ord.Ascending {
						return c < 0
					}
					return c > 0
				}
			}
			return false
		})
	}
	return users, nil
}

func compareUsers(u1, u2 user.User, field string) int {
	switch field {
	case "id":
		return u1.ID - u2.ID
	case "username":
		return strings.Compare(u1.Username, u2.Username)
	case "role":
		return strings.Compare(string(u1.Role), string(u2.Role))
	case "created_at":
		switch {
		case u1.CreatedAt.Before(u2.CreatedAt):
			return -1
		case u1.CreatedAt.After(u2.CreatedAt):
			return 1
		}
	}
	return 0
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.find(username); ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, row := range repo.db.rows {
		if row.ID == usr.ID {
			row.Role = usr.Role
			row.Email = usr.Email
			if usr.PasswordHash != nil {
				row.PasswordHash = usr.PasswordHash
			}
			return *row, nil
		}
	}
	return user.User{}, user.ErrNotFound
}
