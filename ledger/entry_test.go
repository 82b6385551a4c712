package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/ledger"
)

func amt(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func draftEntry() *ledger.JournalEntry {
	return ledger.NewEntry(date(2025, time.March, 10), "REF-1", "test entry", ledger.TypeStandard, "manual")
}

// =============================================================================
// LINE INVARIANTS
// =============================================================================

func TestAddLine_RejectsNegativeAmounts(t *testing.T) {
	e := draftEntry()
	if err := e.AddLine("1000", "", amt("-5"), decimal.Zero); !errors.Is(err, ledger.ErrInvalidLine) {
		t.Fatalf("negative debit: got %v, want ErrInvalidLine", err)
	}
	if err := e.AddLine("1000", "", decimal.Zero, amt("-5")); !errors.Is(err, ledger.ErrInvalidLine) {
		t.Fatalf("negative credit: got %v, want ErrInvalidLine", err)
	}
}

func TestAddLine_RejectsBothSidesNonzero(t *testing.T) {
	e := draftEntry()
	if err := e.AddLine("1000", "", amt("5"), amt("5")); !errors.Is(err, ledger.ErrInvalidLine) {
		t.Fatalf("got %v, want ErrInvalidLine", err)
	}
}

func TestAddLine_RejectsSubCentPrecision(t *testing.T) {
	e := draftEntry()
	if err := e.AddLine("1000", "", amt("1.005"), decimal.Zero); !errors.Is(err, ledger.ErrInvalidLine) {
		t.Fatalf("got %v, want ErrInvalidLine", err)
	}
}

func TestAddLine_ZeroZeroIsDroppedSilently(t *testing.T) {
	// Adapters compute zero VAT or zero variance and call AddLine
	// unconditionally; the zero line must not survive.
	e := draftEntry()
	if err := e.AddLine("1000", "", decimal.Zero, decimal.Zero); err != nil {
		t.Fatalf("zero/zero line: got %v, want nil", err)
	}
	if len(e.Lines) != 0 {
		t.Fatalf("zero/zero line was appended: %d lines", len(e.Lines))
	}
}

func TestAddLine_RejectedOutsideDraft(t *testing.T) {
	e := draftEntry()
	e.Status = ledger.StatusPosted
	err := e.AddLine("1000", "", amt("5"), decimal.Zero)
	if !errors.Is(err, ledger.ErrInvalidStateTransition) {
		t.Fatalf("got %v, want ErrInvalidStateTransition", err)
	}
}

func TestCalculateTotals_Idempotent(t *testing.T) {
	e := draftEntry()
	e.AddLine("1000", "", amt("100.50"), decimal.Zero)
	e.AddLine("4000", "", decimal.Zero, amt("100.50"))
	e.CalculateTotals()
	e.CalculateTotals()
	if !e.TotalDebit.Equal(amt("100.50")) || !e.TotalCredit.Equal(amt("100.50")) {
		t.Fatalf("totals drifted: debit=%s credit=%s", e.TotalDebit, e.TotalCredit)
	}
}

// =============================================================================
// VALIDATE
// =============================================================================

func TestValidate_UnbalancedEntryCarriesBothTotals(t *testing.T) {
	e := draftEntry()
	e.AddLine("1000", "", amt("100"), decimal.Zero)
	e.AddLine("4000", "", decimal.Zero, amt("99.99"))

	err := e.Validate()
	if !errors.Is(err, ledger.ErrUnbalancedEntry) {
		t.Fatalf("got %v, want ErrUnbalancedEntry", err)
	}
	var unbalanced *ledger.UnbalancedEntryError
	if !errors.As(err, &unbalanced) {
		t.Fatalf("error is not *UnbalancedEntryError: %v", err)
	}
	if !unbalanced.TotalDebit.Equal(amt("100")) || !unbalanced.TotalCredit.Equal(amt("99.99")) {
		t.Fatalf("error totals: debit=%s credit=%s", unbalanced.TotalDebit, unbalanced.TotalCredit)
	}
}

func TestValidate_OffByOneCentIsUnbalanced(t *testing.T) {
	// Balance is decimal-exact: a single cent of drift fails.
	e := draftEntry()
	e.AddLine("1000", "", amt("0.01"), decimal.Zero)
	if err := e.Validate(); !errors.Is(err, ledger.ErrUnbalancedEntry) {
		t.Fatalf("got %v, want ErrUnbalancedEntry", err)
	}
}

func TestValidate_ZeroTotalRejected(t *testing.T) {
	// Balanced at zero is still unpostable.
	e := draftEntry()
	if err := e.Validate(); !errors.Is(err, ledger.ErrZeroAmount) {
		t.Fatalf("got %v, want ErrZeroAmount", err)
	}
}

func TestValidate_BalancedEntryPasses(t *testing.T) {
	e := draftEntry()
	e.AddLine("1000", "", amt("59.99"), decimal.Zero)
	e.AddLine("4000", "", decimal.Zero, amt("50.00"))
	e.AddLine("2100", "", decimal.Zero, amt("9.99"))
	if err := e.Validate(); err != nil {
		t.Fatalf("balanced entry rejected: %v", err)
	}
}

// =============================================================================
// REVERSAL CONSTRUCTION
// =============================================================================

func TestReversed_MirrorsEveryLine(t *testing.T) {
	e := draftEntry()
	e.AddLine("1200", "customer", amt("115"), decimal.Zero)
	e.AddLine("4000", "net", decimal.Zero, amt("100"))
	e.AddLine("2100", "vat", decimal.Zero, amt("15"))
	e.EntryNumber = "JE-2025-0001"
	e.Status = ledger.StatusPosted

	rev := e.Reversed(e.Date, "posted in error")

	if rev.Status != ledger.StatusDraft {
		t.Fatalf("reversal status = %s, want draft", rev.Status)
	}
	if rev.Type != ledger.TypeReversal {
		t.Fatalf("reversal type = %s, want reversal", rev.Type)
	}
	if rev.ReversalOf != "JE-2025-0001" {
		t.Fatalf("ReversalOf = %q", rev.ReversalOf)
	}
	if rev.Reference != "REV-JE-2025-0001" {
		t.Fatalf("Reference = %q", rev.Reference)
	}
	if len(rev.Lines) != len(e.Lines) {
		t.Fatalf("line count %d, want %d", len(rev.Lines), len(e.Lines))
	}
	for i, line := range rev.Lines {
		if !line.Debit.Equal(e.Lines[i].Credit) || !line.Credit.Equal(e.Lines[i].Debit) {
			t.Fatalf("line %d not mirrored: %+v vs %+v", i, line, e.Lines[i])
		}
	}
	if err := rev.Validate(); err != nil {
		t.Fatalf("mirror of a balanced entry must validate: %v", err)
	}
}

func TestMustDecimal_PanicsOnBadLiteral(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on a malformed literal")
		}
	}()
	ledger.MustDecimal("12,50")
}
