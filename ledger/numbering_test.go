package ledger_test

import (
	"testing"
	"time"

	"github.com/gearupae/gearuperp/ledger"
)

func TestEntryPrefix_PerType(t *testing.T) {
	cases := map[ledger.EntryType]string{
		ledger.TypeStandard:   "JE",
		ledger.TypeAdjustment: "ADJ",
		ledger.TypeOpening:    "OPN",
		ledger.TypeReversal:   "RJE",
	}
	for entryType, want := range cases {
		if got := ledger.EntryPrefix(entryType); got != want {
			t.Errorf("EntryPrefix(%s) = %q, want %q", entryType, got, want)
		}
	}
	// Unknown types fall back to the standard prefix.
	if got := ledger.EntryPrefix(ledger.EntryType("bogus")); got != "JE" {
		t.Errorf("EntryPrefix(bogus) = %q, want JE", got)
	}
}

func TestFormatEntryNumber_ZeroPadding(t *testing.T) {
	if got := ledger.FormatEntryNumber("JE", 2025, 7); got != "JE-2025-0007" {
		t.Fatalf("got %q", got)
	}
	// Sequences past 9999 grow wider instead of wrapping.
	if got := ledger.FormatEntryNumber("JE", 2025, 12345); got != "JE-2025-12345" {
		t.Fatalf("got %q", got)
	}
}

func TestParseEntryNumber_RoundTrip(t *testing.T) {
	prefix, year, seq, err := ledger.ParseEntryNumber("ADJ-2026-0042")
	if err != nil {
		t.Fatal(err)
	}
	if prefix != "ADJ" || year != 2026 || seq != 42 {
		t.Fatalf("got %s %d %d", prefix, year, seq)
	}
}

func TestParseEntryNumber_RejectsMalformed(t *testing.T) {
	for _, number := range []string{"", "JE", "JE-25-0001", "je-2025-0001", "JE-2025-", "JE_2025_0001"} {
		if _, _, _, err := ledger.ParseEntryNumber(number); err == nil {
			t.Errorf("ParseEntryNumber(%q) accepted", number)
		}
	}
}

func TestMonthlyPeriods_CalendarYear(t *testing.T) {
	fy := ledger.CalendarFiscalYear(2025)
	periods := ledger.MonthlyPeriods(fy)
	if len(periods) != 12 {
		t.Fatalf("period count = %d, want 12", len(periods))
	}
	if periods[0].Name != "2025-01" || periods[11].Name != "2025-12" {
		t.Fatalf("names: first=%s last=%s", periods[0].Name, periods[11].Name)
	}
	if !periods[1].End.Equal(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("february end = %s", periods[1].End)
	}
	// Consecutive periods tile the year with no gap.
	for i := 1; i < len(periods); i++ {
		if !periods[i].Start.Equal(periods[i-1].End.AddDate(0, 0, 1)) {
			t.Fatalf("gap between %s and %s", periods[i-1].Name, periods[i].Name)
		}
	}
}

func TestPeriodContains_InclusiveBounds(t *testing.T) {
	p := ledger.AccountingPeriod{
		Name:  "2025-03",
		Start: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
	if !p.Contains(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("start day excluded")
	}
	if !p.Contains(time.Date(2025, time.March, 31, 23, 59, 0, 0, time.UTC)) {
		t.Fatal("end day excluded (containment is by date, not instant)")
	}
	if p.Contains(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("day after end included")
	}
}
