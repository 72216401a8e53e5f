package core

import (
	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is anything that can run parameterized queries: *sqlx.DB or *sqlx.Tx.
	DBExecutor interface {
		sqlx.ExtContext
	}

	DB interface {
		DBExecutor

		Beginx() (*sqlx.Tx, error)
		Close() error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
