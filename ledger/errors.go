package ledger

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateCharge means a charge with the same uniqueness key already
	// exists. Callers creating charges idempotently treat it as a no-op.
	ErrDuplicateCharge = errors.New("charge already exists")

	// ErrAlreadyAllocated means the payment already has allocations.
	ErrAlreadyAllocated = errors.New("payment already allocated")

	ErrNotFound      = errors.New("not found")
	ErrInvalidAmount = errors.New("amount must be positive")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
