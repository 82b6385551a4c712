/*
errors.go - Centralized error taxonomy for the posting core

PURPOSE:
  All error types in one place. Document adapters and the API layer
  classify errors with errors.Is against the sentinels; the structured
  types carry the numbers a human needs to fix the problem.

ERROR CATEGORIES:
  1. Posting errors  - Balance, amount and state-machine violations
  2. Calendar errors - Locked periods, missing fiscal years
  3. Config errors   - Missing account mappings, unknown accounts
  4. Adapter errors  - Domain failures propagated the same way
     (InsufficientStockError)

SEE ALSO:
  - posting.go: Raises most of these
  - api/handlers.go: Maps them to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnbalancedEntry is returned when an entry's debits and credits
	// differ at post time. Never auto-corrected.
	ErrUnbalancedEntry = errors.New("entry does not balance")

	// ErrZeroAmount is returned when an entry totals zero: nothing to post.
	ErrZeroAmount = errors.New("entry total is zero")

	// ErrPeriodLocked is returned when the entry date falls in a locked
	// accounting period. Applies to both posting and reversal.
	ErrPeriodLocked = errors.New("accounting period is locked")

	// ErrNoActiveFiscalYear is returned when the entry date falls outside
	// every known fiscal year.
	ErrNoActiveFiscalYear = errors.New("no fiscal year covers this date")

	// ErrInvalidStateTransition is returned when post or reverse is called
	// out of order, or when a posted entry is mutated.
	ErrInvalidStateTransition = errors.New("invalid entry state transition")

	// ErrMissingAccountMapping is returned when a transaction type resolves
	// to no account and no fallback exists. A configuration error, never a
	// silent zero.
	ErrMissingAccountMapping = errors.New("no account mapping configured")

	// ErrInsufficientStock is a stock adapter error, propagated through the
	// same taxonomy so batch jobs can classify it.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAccountNotFound is returned when a line references an account
	// that does not exist or is inactive.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEntryNotFound is returned when an entry number is unknown.
	ErrEntryNotFound = errors.New("journal entry not found")

	// ErrSystemAccount is returned when a line targets a grouping account.
	ErrSystemAccount = errors.New("cannot post to a system account")

	// ErrInvalidLine is returned for malformed lines: negative amounts,
	// both sides nonzero, or more than 2 decimal places.
	ErrInvalidLine = errors.New("invalid journal line")

	// ErrDuplicateReference is returned when a source document has already
	// produced a posted entry under the same reference. Idempotency guard
	// for batch adapters.
	ErrDuplicateReference = errors.New("reference already posted")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnbalancedEntryError reports the exact totals that failed the balance
// check.
type UnbalancedEntryError struct {
	Reference   string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("entry %q does not balance: debits %s, credits %s",
		e.Reference, e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalancedEntry }

// PeriodLockedError reports which period blocked the posting.
type PeriodLockedError struct {
	Period string
	Date   time.Time
}

func (e *PeriodLockedError) Error() string {
	return fmt.Sprintf("period %s is locked: cannot post on %s",
		e.Period, e.Date.Format("2006-01-02"))
}

func (e *PeriodLockedError) Unwrap() error { return ErrPeriodLocked }

// InvalidStateTransitionError reports an out-of-order lifecycle call.
type InvalidStateTransitionError struct {
	EntryNumber string
	From        EntryStatus
	Op          string // "post", "reverse", "add_line"
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s entry %q in status %q", e.Op, e.EntryNumber, e.From)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// MissingAccountMappingError reports which semantic key failed to
// resolve, and which fallback was tried.
type MissingAccountMappingError struct {
	TransactionType string
	FallbackCode    string
}

func (e *MissingAccountMappingError) Error() string {
	if e.FallbackCode == "" {
		return fmt.Sprintf("accounts not configured for %q", e.TransactionType)
	}
	return fmt.Sprintf("accounts not configured for %q (no account with fallback code %q)",
		e.TransactionType, e.FallbackCode)
}

func (e *MissingAccountMappingError) Unwrap() error { return ErrMissingAccountMapping }

// InsufficientStockError reports a stock-out attempt beyond on-hand
// quantity.
type InsufficientStockError struct {
	ItemCode  string
	Requested decimal.Decimal
	OnHand    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %s: requested %s, on hand %s",
		e.ItemCode, e.Requested.String(), e.OnHand.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input or
// configuration, rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnbalancedEntry) ||
		errors.Is(err, ErrZeroAmount) ||
		errors.Is(err, ErrPeriodLocked) ||
		errors.Is(err, ErrNoActiveFiscalYear) ||
		errors.Is(err, ErrMissingAccountMapping) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrSystemAccount) ||
		errors.Is(err, ErrInvalidLine)
}

// IsConflict returns true for state-machine violations, which the API
// maps to 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrDuplicateReference)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}
