/*
store.go - Persistence interfaces for the posting core

PURPOSE:
  Defines the interface between the posting core and the database.
  Different implementations exist: store/sqlite for production,
  ledger/store for in-memory tests.

IMMUTABILITY CONTRACT:
  Posted entries are append-only. The only permitted update on an
  entry is MarkReversed, which flips status posted -> reversed and
  records the reversal's entry number. No method deletes an entry or
  rewrites its lines.

TRANSACTIONS:
  TxStore.WithTx runs a function against a transactional view of the
  store. The posting engine performs every validation read (accounts,
  period lock) and every write inside one WithTx, so a period locked
  between validation and commit cannot slip an entry through.

SEE ALSO:
  - store/sqlite/sqlite.go: Production implementation
  - ledger/store/memory.go:  In-memory implementation for tests
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FILTERS AND READ MODELS
// =============================================================================

// EntryFilter narrows ListEntries.
type EntryFilter struct {
	SourceModule string
	Status       EntryStatus
	From         *time.Time
	To           *time.Time
}

// LineFilter narrows PostedLines. Only lines of posted (including
// later-reversed) entries are ever returned.
type LineFilter struct {
	AccountCode  string
	AccountCodes []string
	From         *time.Time
	To           *time.Time
}

// PostedLine is the flattened read model the reporting layer consumes:
// one row per line of a posted entry.
type PostedLine struct {
	EntryNumber  string
	Date         time.Time
	Reference    string
	ReversalOf   string // original entry number when this line belongs to a reversal
	SourceModule string
	AccountCode  string
	Description  string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
}

// =============================================================================
// STORE
// =============================================================================

// Store is the persistence surface of the posting core. Getters return
// (nil, nil) when the record does not exist; callers decide whether
// absence is an error.
type Store interface {
	// Accounts
	SaveAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, code string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)

	// Account mappings
	SaveMapping(ctx context.Context, m AccountMapping) error
	GetMapping(ctx context.Context, transactionType string) (*AccountMapping, error)
	ListMappings(ctx context.Context) ([]AccountMapping, error)

	// Tax codes
	SaveTaxCode(ctx context.Context, tc TaxCode) error
	GetTaxCode(ctx context.Context, code string) (*TaxCode, error)
	DefaultTaxCode(ctx context.Context) (*TaxCode, error)
	ListTaxCodes(ctx context.Context) ([]TaxCode, error)

	// Fiscal calendar
	SaveFiscalYear(ctx context.Context, fy FiscalYear) error
	SavePeriod(ctx context.Context, p AccountingPeriod) error
	FiscalYearFor(ctx context.Context, date time.Time) (*FiscalYear, error)
	PeriodFor(ctx context.Context, date time.Time) (*AccountingPeriod, error)
	ListPeriods(ctx context.Context) ([]AccountingPeriod, error)
	SetPeriodLock(ctx context.Context, name string, locked bool) error

	// Journal entries
	NextEntrySequence(ctx context.Context, prefix string, year int) (int, error)
	InsertEntry(ctx context.Context, e *JournalEntry) error
	GetEntry(ctx context.Context, entryNumber string) (*JournalEntry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)
	MarkReversed(ctx context.Context, entryNumber, reversalNumber string) error

	// ReferenceExists reports whether a non-reversed entry already
	// carries the reference. Document adapters use it as an
	// idempotency guard; reversing an entry frees its reference for
	// a corrected re-post.
	ReferenceExists(ctx context.Context, reference string) (bool, error)

	// Posted-line read model
	PostedLines(ctx context.Context, f LineFilter) ([]PostedLine, error)
}

// TxStore wraps Store with transaction support. The engine requires it:
// a posting either fully commits or leaves no trace.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error,
	// the transaction is rolled back; otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
