package inmemdb

import (
	"sync"

	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/core/user"
)

type (
	// DB is an in-memory store implementing the same repositories as the Postgres one.
	// Rows are kept in insertion (ID) order.
	DB struct {
		user    *userTable
		project *projectTable
	}

	userTable struct {
		rows  []*user.User
		seq   int
		mutex sync.RWMutex
	}

	projectTable struct {
		rows  []*project.Project
		seq   int
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:    new(userTable),
		project: new(projectTable),
	}
}

// Reset empties all tables and restarts IDs.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.rows, db.user.seq = nil, 0
	db.user.mutex.Unlock()

	db.project.mutex.Lock()
	db.project.rows, db.project.seq = nil, 0
	db.project.mutex.Unlock()
}
