/*
Package ledger is the double-entry posting core of the ERP.

PURPOSE:
  This package contains the chart of accounts, the journal entry
  aggregate, the posting engine, the account mapping resolver, the
  fiscal calendar, and the reporting layer. Document adapters (sales
  invoices, bills, payroll, assets, stock) live in the documents
  package and only ever talk to this package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: Chart-of-accounts entry with a type-derived debit/credit nature
  - TaxCode: VAT rate and classification; line VAT is always derived from it
  - JournalEntry: Header plus ordered debit/credit lines, with a
    draft -> posted -> reversed lifecycle
  - JournalEntryLine: One side of a double entry, 2-decimal fixed point

DESIGN PRINCIPLES:
  1. Immutability: posted entries are never edited or deleted,
     corrections are new reversal entries
  2. Precision: decimal.Decimal everywhere, never float
  3. The single load-bearing invariant: for every posted entry,
     sum(debits) == sum(credits) to the cent

SEE ALSO:
  - entry.go:   Journal entry aggregate operations
  - posting.go: The posting engine and state machine
  - query.go:   Balance, trial balance, VAT and aging reports
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// DebitNatured reports whether a debit increases the balance of an
// account of this type. Assets and expenses are debit-natured;
// liabilities, equity and income are credit-natured.
func (t AccountType) DebitNatured() bool {
	return t == AccountAsset || t == AccountExpense
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountIncome, AccountExpense:
		return true
	}
	return false
}

// Account is one entry in the chart of accounts.
//
// Code is immutable once any posted line references it; the store
// enforces this by refusing code changes, never by cascading them.
type Account struct {
	Code           string
	Name           string
	Type           AccountType
	Category       string // statement grouping, e.g. "current_asset"
	IsContra       bool   // reduces the carrying value of a sibling account
	IsSystem       bool   // grouping/header account, postings rejected
	IsActive       bool
	OpeningBalance decimal.Decimal
}

// =============================================================================
// TAX CODES
// =============================================================================

// TaxType classifies a tax code for VAT return partitioning.
type TaxType string

const (
	TaxStandard   TaxType = "standard"
	TaxZero       TaxType = "zero"
	TaxExempt     TaxType = "exempt"
	TaxOutOfScope TaxType = "out_of_scope"
)

// TaxCode carries a VAT rate and the GL accounts its output/input tax
// posts to. Exactly one active tax code should have IsDefault set.
type TaxCode struct {
	Code                string
	Name                string
	Rate                decimal.Decimal // percent, >= 0
	Type                TaxType
	SalesAccountCode    string // output VAT account
	PurchaseAccountCode string // input VAT account
	IsDefault           bool
}

// TaxOn derives the VAT amount for a net amount, rounded to 2 decimal
// places. A nil tax code means out-of-scope: zero tax, never an error.
func (tc *TaxCode) TaxOn(net decimal.Decimal) decimal.Decimal {
	if tc == nil || tc.Rate.IsZero() {
		return decimal.Zero
	}
	return net.Mul(tc.Rate).DivRound(decimal.NewFromInt(100), 2)
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

// EntryStatus is the lifecycle state of a journal entry.
// The only transitions are draft -> posted and posted -> reversed.
type EntryStatus string

const (
	StatusDraft    EntryStatus = "draft"
	StatusPosted   EntryStatus = "posted"
	StatusReversed EntryStatus = "reversed"
)

// EntryType classifies the business origin of an entry.
type EntryType string

const (
	TypeStandard   EntryType = "standard"
	TypeAdjustment EntryType = "adjustment"
	TypeOpening    EntryType = "opening"
	TypeReversal   EntryType = "reversal"
)

// JournalEntryLine is one side of a double entry. Debit and Credit are
// non-negative 2-decimal amounts and exactly one of them is nonzero.
type JournalEntryLine struct {
	AccountCode string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// JournalEntry is the aggregate root: a header plus its lines.
// Lines are owned by the entry and die with it; they are never shared.
type JournalEntry struct {
	EntryNumber     string // "PREFIX-YYYY-NNNN", assigned at posting
	Date            time.Time
	Reference       string
	Description     string
	Type            EntryType
	SourceModule    string
	Status          EntryStatus
	TotalDebit      decimal.Decimal
	TotalCredit     decimal.Decimal
	SystemGenerated bool
	PostedBy        string
	PostedAt        time.Time
	ReversedBy      string // entry number of the reversal entry
	ReversalOf      string // set on reversal entries: the original
	Lines           []JournalEntryLine
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// TwoDecimalPlaces reports whether d has at most 2 decimal places.
func TwoDecimalPlaces(d decimal.Decimal) bool {
	scaled := d.Mul(hundred)
	return scaled.Equal(scaled.Floor())
}

// MustDecimal parses s as a decimal and panics on failure. Intended
// for literals in seeds and tests.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("ledger: bad decimal literal %q: %v", s, err))
	}
	return d
}
