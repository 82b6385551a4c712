/*
posting.go - The posting engine and entry state machine

PURPOSE:
  Owns the two guarded transitions of a journal entry's life:

    draft ---Post---> posted ---Reverse---> reversed

  No other transitions exist. Posting validates the balance invariant
  (sum of debits == sum of credits, to the cent), the account
  references, and the fiscal calendar, all inside one store
  transaction. A posted entry is never mutated or deleted; Reverse
  creates a new mirrored entry and both coexist.

TRANSACTION DISCIPLINE:
  Every read that guards the posting (account lookups, the period-lock
  check) happens inside the same WithTx that writes the entry. A
  period locked between validation and commit therefore cannot race a
  posting through.

SEE ALSO:
  - entry.go:  Draft construction and balance validation
  - period.go: Fiscal calendar types
  - query.go:  Reads over the posted lines this engine writes
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Engine performs the posting state transitions.
type Engine struct {
	store TxStore
	audit AuditLog // optional
	now   func() time.Time
}

// NewEngine creates a posting engine over a transactional store.
func NewEngine(store TxStore) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithAudit attaches an audit log. Returns the engine for chaining.
func (en *Engine) WithAudit(audit AuditLog) *Engine {
	en.audit = audit
	return en
}

// WithNow overrides the engine clock. Used by tests and batch jobs
// that post as-of a controlled time.
func (en *Engine) WithNow(now func() time.Time) *Engine {
	if now != nil {
		en.now = now
	}
	return en
}

// =============================================================================
// POST - draft -> posted
// =============================================================================

// Post validates and posts a draft entry inside one store transaction.
// On success the entry carries its allocated number, status posted,
// and the actor/time stamp; on any failure nothing is persisted.
func (en *Engine) Post(ctx context.Context, entry *JournalEntry, actor string) error {
	if entry.Status != StatusDraft {
		return &InvalidStateTransitionError{EntryNumber: entry.EntryNumber, From: entry.Status, Op: "post"}
	}

	entry.CalculateTotals()
	if err := entry.Validate(); err != nil {
		return err
	}

	err := en.store.WithTx(ctx, func(s Store) error {
		return en.post(ctx, s, entry, actor)
	})
	if err != nil {
		// Leave the draft untouched on failure.
		entry.Status = StatusDraft
		entry.EntryNumber = ""
		entry.PostedBy = ""
		entry.PostedAt = time.Time{}
		return err
	}

	if en.audit != nil {
		changes := Changeset{}
		changes.Set("status", string(StatusDraft), string(StatusPosted))
		changes.Set("total", "", entry.TotalDebit.StringFixed(2))
		en.appendAudit(ctx, AuditEntryPosted, entry.EntryNumber, actor, changes)
	}
	return nil
}

// post runs the in-transaction half of Post: calendar and account
// guards, number allocation, and the insert. Shared with Reverse.
func (en *Engine) post(ctx context.Context, s Store, entry *JournalEntry, actor string) error {
	if err := en.checkAccounts(ctx, s, entry); err != nil {
		return err
	}
	if err := en.checkCalendar(ctx, s, entry.Date); err != nil {
		return err
	}

	prefix := EntryPrefix(entry.Type)
	year := entry.Date.Year()
	seq, err := s.NextEntrySequence(ctx, prefix, year)
	if err != nil {
		return fmt.Errorf("allocating entry number: %w", err)
	}
	entry.EntryNumber = FormatEntryNumber(prefix, year, seq)
	entry.Status = StatusPosted
	entry.PostedBy = actor
	entry.PostedAt = en.now().UTC()

	return s.InsertEntry(ctx, entry)
}

func (en *Engine) checkAccounts(ctx context.Context, s Store, entry *JournalEntry) error {
	for _, line := range entry.Lines {
		account, err := s.GetAccount(ctx, line.AccountCode)
		if err != nil {
			return err
		}
		if account == nil || !account.IsActive {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, line.AccountCode)
		}
		if account.IsSystem {
			return fmt.Errorf("%w: %s (%s)", ErrSystemAccount, account.Code, account.Name)
		}
	}
	return nil
}

func (en *Engine) checkCalendar(ctx context.Context, s Store, date time.Time) error {
	fy, err := s.FiscalYearFor(ctx, date)
	if err != nil {
		return err
	}
	if fy == nil {
		return fmt.Errorf("%w: %s", ErrNoActiveFiscalYear, date.Format("2006-01-02"))
	}
	if fy.IsClosed {
		// A closed year locks every period inside it at once.
		return &PeriodLockedError{Period: fy.Code, Date: date}
	}
	period, err := s.PeriodFor(ctx, date)
	if err != nil {
		return err
	}
	if period == nil {
		// The year exists but has a gap at this date.
		return fmt.Errorf("%w: %s", ErrNoActiveFiscalYear, date.Format("2006-01-02"))
	}
	if period.IsLocked {
		return &PeriodLockedError{Period: period.Name, Date: date}
	}
	return nil
}

// =============================================================================
// REVERSE - posted -> reversed
// =============================================================================

// Reverse creates, posts and links the mirror entry of a posted entry.
// The original's lines and amounts are preserved; only its status and
// reversal link change. The reversal is dated on the original's date
// unless reversalDate is nonzero, and either way the date must fall in
// an open period.
func (en *Engine) Reverse(ctx context.Context, entryNumber, actor, reason string, reversalDate time.Time) (*JournalEntry, error) {
	var reversal *JournalEntry

	err := en.store.WithTx(ctx, func(s Store) error {
		original, err := s.GetEntry(ctx, entryNumber)
		if err != nil {
			return err
		}
		if original == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, entryNumber)
		}
		if original.Status != StatusPosted {
			return &InvalidStateTransitionError{EntryNumber: entryNumber, From: original.Status, Op: "reverse"}
		}

		date := original.Date
		if !reversalDate.IsZero() {
			date = reversalDate
		}
		reversal = original.Reversed(date, reason)
		if err := reversal.Validate(); err != nil {
			return err
		}
		if err := en.post(ctx, s, reversal, actor); err != nil {
			return err
		}
		return s.MarkReversed(ctx, entryNumber, reversal.EntryNumber)
	})
	if err != nil {
		return nil, err
	}

	if en.audit != nil {
		changes := Changeset{}
		changes.Set("status", string(StatusPosted), string(StatusReversed))
		changes.Set("reversed_by", "", reversal.EntryNumber)
		if reason != "" {
			changes.Set("reason", "", reason)
		}
		en.appendAudit(ctx, AuditEntryReversed, entryNumber, actor, changes)
	}
	return reversal, nil
}

// appendAudit records an audit entry outside the posting transaction.
// Audit failure never unwinds a committed posting.
func (en *Engine) appendAudit(ctx context.Context, action AuditAction, entryNumber, actor string, changes Changeset) {
	_ = en.audit.Append(ctx, AuditEntry{
		At:          en.now().UTC(),
		Actor:       actor,
		Action:      action,
		EntryNumber: entryNumber,
		Changes:     changes,
	})
}
