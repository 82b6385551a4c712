/*
audit.go - Explicit audit trail for mutating operations

PURPOSE:
  Records who performed each posting-side mutation, when, and what
  changed. There is no ambient "current user": every mutating engine
  operation takes the actor as a parameter, and each changeset is
  constructed deliberately by the code that knows what changed, never
  derived by reflecting over struct fields.
*/
package ledger

import (
	"context"
	"time"
)

// Change is one old/new value pair in a changeset.
type Change struct {
	Old string
	New string
}

// Changeset is an explicit per-entity field diff.
type Changeset map[string]Change

// Set records one field change.
func (c Changeset) Set(field, oldValue, newValue string) {
	c[field] = Change{Old: oldValue, New: newValue}
}

// AuditAction names what happened.
type AuditAction string

const (
	AuditEntryPosted   AuditAction = "entry_posted"
	AuditEntryReversed AuditAction = "entry_reversed"
	AuditPeriodLocked  AuditAction = "period_locked"
)

// AuditEntry records one mutation. Append-only.
type AuditEntry struct {
	At          time.Time
	Actor       string
	Action      AuditAction
	EntryNumber string
	Changes     Changeset
}

// AuditLog stores audit entries.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, entryNumber string) ([]AuditEntry, error)
}
