/*
documents_test.go - Shared fixture for the document adapter tests

Every adapter test runs against an in-memory ledger seeded with the
default chart, mappings, tax codes and a 2025 calendar. The asset
register and stock levels are small in-test fakes; the production
store backs both behind the same interfaces.
*/
package documents_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gearupae/gearuperp/documents"
	"github.com/gearupae/gearuperp/ledger"
	"github.com/gearupae/gearuperp/ledger/store"
)

type fixture struct {
	mem      *store.Memory
	engine   *ledger.Engine
	resolver *ledger.Resolver
	reporter *ledger.Reporter
	register *assetRegister
	levels   *stockBook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, ledger.Seed(ctx, mem))
	require.NoError(t, ledger.SeedCalendar(ctx, mem, 2025))

	engine := ledger.NewEngine(mem).WithAudit(mem).WithNow(func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	})
	return &fixture{
		mem:      mem,
		engine:   engine,
		resolver: ledger.NewResolver(mem),
		reporter: ledger.NewReporter(mem),
		register: &assetRegister{assets: make(map[string]documents.FixedAsset)},
		levels:   &stockBook{onHand: make(map[string]decimal.Decimal)},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// lineOn returns the entry's single line on the account, failing the
// test when the account appears zero or multiple times.
func lineOn(t *testing.T, entry *ledger.JournalEntry, accountCode string) ledger.JournalEntryLine {
	t.Helper()
	var found []ledger.JournalEntryLine
	for _, line := range entry.Lines {
		if line.AccountCode == accountCode {
			found = append(found, line)
		}
	}
	require.Len(t, found, 1, "lines on account %s", accountCode)
	return found[0]
}

func hasLineOn(entry *ledger.JournalEntry, accountCode string) bool {
	for _, line := range entry.Lines {
		if line.AccountCode == accountCode {
			return true
		}
	}
	return false
}

// =============================================================================
// FAKES
// =============================================================================

type assetRegister struct {
	assets map[string]documents.FixedAsset
}

func (r *assetRegister) SaveAsset(_ context.Context, a documents.FixedAsset) error {
	r.assets[a.Code] = a
	return nil
}

func (r *assetRegister) GetAsset(_ context.Context, code string) (*documents.FixedAsset, error) {
	a, ok := r.assets[code]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *assetRegister) ListAssets(_ context.Context) ([]documents.FixedAsset, error) {
	out := make([]documents.FixedAsset, 0, len(r.assets))
	for _, a := range r.assets {
		out = append(out, a)
	}
	return out, nil
}

type stockBook struct {
	onHand map[string]decimal.Decimal
}

func (b *stockBook) OnHand(_ context.Context, itemCode string) (decimal.Decimal, error) {
	return b.onHand[itemCode], nil
}

func (b *stockBook) Apply(_ context.Context, itemCode string, delta decimal.Decimal) error {
	b.onHand[itemCode] = b.onHand[itemCode].Add(delta)
	return nil
}
