package repository

import (
	"errors"

	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateError maps postgres constraint failures onto repository errors
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &interfaces.DuplicateError{Constraint: pgErr.ConstraintName}
		case pgForeignKeyViolation:
			return interfaces.ErrForeignKey
		}
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
