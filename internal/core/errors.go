package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError reports a malformed or missing input field. It aborts the
// operation before any write happens whenever the core can detect it up front;
// constraint violations raised by the database are mapped to it as well.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that a referenced entity (medicine, supplier, patient,
// doctor, prescription, batch) does not exist. ID is zero when the offending
// identifier could not be determined from the failure.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InsufficientStockError reports that a requested quantity exceeds the
// allocatable stock for a medicine. Shortfall() is the unsatisfied remainder.
type InsufficientStockError struct {
	MedicineID int
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Shortfall() int { return e.Requested - e.Available }

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for medicine %d: requested %d, available %d (short %d)",
		e.MedicineID, e.Requested, e.Available, e.Shortfall())
}

// ContentionError reports that a lock or transaction could not be acquired
// within the configured bound. The operation was rolled back; callers may retry.
type ContentionError struct {
	Op  string
	Err error
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("%s: lock wait exceeded configured bound: %v", e.Op, e.Err)
}

func (e *ContentionError) Unwrap() error { return e.Err }

// StorageError reports an underlying persistence failure unrelated to business
// rules. It is fatal to the operation and never retried by the core.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: storage: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// PostgreSQL error codes the core gives business meaning to.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgLockNotAvailable    = "55P03"
)

// mapPgError translates a pgx-level failure into the core error taxonomy.
// Foreign-key violations become NotFoundError (referential integrity doubles as
// the existence check on creation), unique/check violations become ValidationError,
// lock timeouts become ContentionError, everything else StorageError.
func mapPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ContentionError{Op: op, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return &NotFoundError{Entity: referencedEntity(pgErr.ConstraintName)}
		case pgUniqueViolation:
			return &ValidationError{Field: pgErr.ConstraintName, Reason: "already exists"}
		case pgCheckViolation:
			return &ValidationError{Field: pgErr.ConstraintName, Reason: "constraint violated"}
		case pgLockNotAvailable:
			return &ContentionError{Op: op, Err: err}
		}
	}
	return &StorageError{Op: op, Err: err}
}

// referencedEntity derives the missing entity's name from a foreign-key
// constraint name such as "purchase_order_items_medicine_id_fkey".
func referencedEntity(constraint string) string {
	for _, e := range []string{"medicine", "supplier", "patient", "doctor", "prescription", "sale"} {
		if strings.Contains(constraint, e+"_id") {
			return e
		}
	}
	return "referenced record"
}
