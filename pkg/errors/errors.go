package errors

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ── Sentinels ──

var (
	// ErrOptimisticLock the row was changed by another writer since it was read
	ErrOptimisticLock = errors.New("record was modified by another operation, reload and retry")

	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("natural key conflict")
	ErrNotFound              = errors.New("record not found")
	ErrTransient             = errors.New("store temporarily unavailable")
	ErrForeignKeyNotVisible  = errors.New("referenced record not visible yet")
	ErrBusinessRuleViolation = errors.New("business rule violation")
)

// ── Typed errors ──

// ValidationError malformed input rejected before any write
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidation shortcut for &ValidationError{}
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError uniqueness violation on a natural key
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Constraint == "" {
		return "unique constraint violated"
	}
	return "unique constraint violated: " + e.Constraint
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
func (e *ConflictError) Unwrap() error        { return e.Err }

// NotFoundError the target row no longer exists
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound shortcut for &NotFoundError{}
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// TransientStoreError timeouts and temporary unavailability, safe to retry
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Is(target error) bool { return target == ErrTransient }
func (e *TransientStoreError) Unwrap() error        { return e.Err }

// ForeignKeyError a dependent insert fired before its parent row became durable
type ForeignKeyError struct {
	Constraint string
	Err        error
}

func (e *ForeignKeyError) Error() string {
	return "foreign key not satisfied: " + e.Constraint
}

func (e *ForeignKeyError) Is(target error) bool { return target == ErrForeignKeyNotVisible }
func (e *ForeignKeyError) Unwrap() error        { return e.Err }

// BusinessRuleViolation a request that is well-formed but not allowed
type BusinessRuleViolation struct {
	Rule   string
	Reason string
}

func (e *BusinessRuleViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Reason)
}

func (e *BusinessRuleViolation) Is(target error) bool { return target == ErrBusinessRuleViolation }

// NewBusinessRule shortcut for &BusinessRuleViolation{}
func NewBusinessRule(rule, reason string) error {
	return &BusinessRuleViolation{Rule: rule, Reason: reason}
}

// ── Store error translation ──

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"
)

// Translate maps a raw gorm / pgx error onto the taxonomy. Errors it does not
// recognise are returned unchanged. nil stays nil.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		conflict *ConflictError
		fk       *ForeignKeyError
		tr       *TransientStoreError
		nf       *NotFoundError
	)
	if errors.As(err, &conflict) || errors.As(err, &fk) || errors.As(err, &tr) || errors.As(err, &nf) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: op}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Err: err}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &ForeignKeyError{Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return &ConflictError{Constraint: pgErr.ConstraintName, Err: err}
		case pgErr.Code == pgForeignKeyViolation:
			return &ForeignKeyError{Constraint: pgErr.ConstraintName, Err: err}
		case pgErr.Code == pgSerialization, pgErr.Code == pgDeadlock,
			pgErr.Code == pgAdminShutdown, pgErr.Code == pgCannotConnectNow,
			len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return &TransientStoreError{Op: op, Err: err}
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientStoreError{Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientStoreError{Op: op, Err: err}
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return &TransientStoreError{Op: op, Err: err}
	}

	return err
}

// IsRetryable reports whether a retry with backoff can succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrForeignKeyNotVisible)
}
