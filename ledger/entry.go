/*
entry.go - Journal entry aggregate operations

PURPOSE:
  Construction and in-memory mutation of draft journal entries. Every
  mutation is guarded by status: once an entry leaves draft, AddLine
  and friends fail with InvalidStateTransitionError. The balance check
  itself lives in Validate and is re-run by the engine at post time.

LINE INVARIANTS (checked at AddLine):
  1. Debit and credit are non-negative
  2. At most 2 decimal places on either side
  3. Exactly one side is nonzero (a zero/zero call is a defensive no-op)

SEE ALSO:
  - posting.go: Consumes Validate at the post transition
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NewEntry creates a journal entry in draft with no lines. The entry
// number is allocated later, at posting, inside the posting
// transaction.
func NewEntry(date time.Time, reference, description string, entryType EntryType, sourceModule string) *JournalEntry {
	return &JournalEntry{
		Date:         date,
		Reference:    reference,
		Description:  description,
		Type:         entryType,
		SourceModule: sourceModule,
		Status:       StatusDraft,
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
	}
}

// AddLine appends a line to a draft entry.
//
// A line with both sides zero is accepted and dropped: adapters that
// compute a zero VAT or zero variance can call AddLine unconditionally.
func (e *JournalEntry) AddLine(accountCode, description string, debit, credit decimal.Decimal) error {
	if e.Status != StatusDraft {
		return &InvalidStateTransitionError{EntryNumber: e.EntryNumber, From: e.Status, Op: "add_line"}
	}
	if debit.IsNegative() || credit.IsNegative() {
		return fmt.Errorf("%w: negative amount on account %s", ErrInvalidLine, accountCode)
	}
	if !debit.IsZero() && !credit.IsZero() {
		return fmt.Errorf("%w: account %s has both debit and credit", ErrInvalidLine, accountCode)
	}
	if !TwoDecimalPlaces(debit) || !TwoDecimalPlaces(credit) {
		return fmt.Errorf("%w: account %s amount has more than 2 decimal places", ErrInvalidLine, accountCode)
	}
	if debit.IsZero() && credit.IsZero() {
		return nil // defensive no-op
	}

	e.Lines = append(e.Lines, JournalEntryLine{
		AccountCode: accountCode,
		Description: description,
		Debit:       debit,
		Credit:      credit,
	})
	e.CalculateTotals()
	return nil
}

// CalculateTotals recomputes TotalDebit and TotalCredit from the lines.
// Always callable, idempotent.
func (e *JournalEntry) CalculateTotals() {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range e.Lines {
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	e.TotalDebit = totalDebit
	e.TotalCredit = totalCredit
}

// Balanced reports whether debits equal credits, decimal-exact.
func (e *JournalEntry) Balanced() bool {
	return e.TotalDebit.Equal(e.TotalCredit)
}

// Validate checks the line shape and the balance invariant. It assumes
// CalculateTotals has run (the engine always re-runs it first).
func (e *JournalEntry) Validate() error {
	for _, line := range e.Lines {
		hasDebit := !line.Debit.IsZero()
		hasCredit := !line.Credit.IsZero()
		if hasDebit == hasCredit {
			return fmt.Errorf("%w: account %s must have exactly one of debit or credit",
				ErrInvalidLine, line.AccountCode)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: negative amount on account %s", ErrInvalidLine, line.AccountCode)
		}
	}
	if !e.Balanced() {
		return &UnbalancedEntryError{
			Reference:   e.Reference,
			TotalDebit:  e.TotalDebit,
			TotalCredit: e.TotalCredit,
		}
	}
	if e.TotalDebit.IsZero() {
		return fmt.Errorf("%w: entry %q", ErrZeroAmount, e.Reference)
	}
	return nil
}

// Reversed builds the mirror entry: every line's debit and credit
// swapped 1:1, typed as a reversal, referencing the original. The
// result is a draft; the engine posts it.
func (e *JournalEntry) Reversed(date time.Time, reason string) *JournalEntry {
	description := "Reversal of " + e.EntryNumber
	if reason != "" {
		description += ": " + reason
	}
	rev := NewEntry(date, "REV-"+e.EntryNumber, description, TypeReversal, e.SourceModule)
	rev.SystemGenerated = true
	rev.ReversalOf = e.EntryNumber
	for _, line := range e.Lines {
		rev.Lines = append(rev.Lines, JournalEntryLine{
			AccountCode: line.AccountCode,
			Description: line.Description,
			Debit:       line.Credit,
			Credit:      line.Debit,
		})
	}
	rev.CalculateTotals()
	return rev
}
