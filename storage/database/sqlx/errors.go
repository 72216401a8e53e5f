package sqlxrepos

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
