package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/megaventa/pos-api/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03" // lock_timeout
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeInsufficientPriv     = "42501" // incluye violaciones de política RLS
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return false
}

// mapError traduce errores de PostgreSQL a la taxonomía de dominio conservando el original.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%s: %w (%s)", op, domain.ErrLedgerConflict, pgErr.Code)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
		case codeInsufficientPriv:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrUnauthenticatedContext, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
