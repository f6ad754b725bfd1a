package database

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the services react to.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a unique violation, optionally on a specific constraint.
func IsUniqueViolation(err error, constraint ...string) bool {
	return matches(err, codeUniqueViolation, constraint)
}

// IsForeignKeyViolation reports whether err is a foreign key violation (for example deleting a
// grade that students still reference).
func IsForeignKeyViolation(err error, constraint ...string) bool {
	return matches(err, codeForeignKeyViolation, constraint)
}

// IsCheckViolation reports whether err violates a CHECK constraint.
func IsCheckViolation(err error, constraint ...string) bool {
	return matches(err, codeCheckViolation, constraint)
}

func matches(err error, code string, constraint []string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != code {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, name := range constraint {
		if pqErr.Constraint == name {
			return true
		}
	}
	return false
}
