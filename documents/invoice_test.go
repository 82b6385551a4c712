package documents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearupae/gearuperp/documents"
	"github.com/gearupae/gearuperp/ledger"
)

func TestPostSalesInvoice_StandardRated(t *testing.T) {
	f := newFixture(t)
	svc := documents.NewInvoiceService(f.engine, f.resolver, f.mem)

	entry, err := svc.PostSalesInvoice(context.Background(), documents.SalesInvoice{
		Number:   "INV-1001",
		Customer: "Acme Trading",
		Date:     day(2025, time.March, 5),
		Lines: []documents.InvoiceLine{
			{Description: "Widgets", Quantity: dec("4"), UnitPrice: dec("25.00"), TaxCode: "VAT15"},
		},
	}, "sales-clerk")
	require.NoError(t, err)

	// Dr AR 115.00 / Cr Revenue 100.00 / Cr Output VAT 15.00
	assert.Equal(t, "115.00", lineOn(t, entry, "1200").Debit.StringFixed(2))
	assert.Equal(t, "100.00", lineOn(t, entry, "4000").Credit.StringFixed(2))
	assert.Equal(t, "15.00", lineOn(t, entry, "2100").Credit.StringFixed(2))

	assert.Equal(t, ledger.StatusPosted, entry.Status)
	assert.Equal(t, "sales", entry.SourceModule)
	assert.Equal(t, "INV-1001", entry.Reference)
	assert.True(t, entry.SystemGenerated)
}

func TestPostSalesInvoice_OutOfScopeLineCarriesNoVAT(t *testing.T) {
	f := newFixture(t)
	svc := documents.NewInvoiceService(f.engine, f.resolver, f.mem)

	entry, err := svc.PostSalesInvoice(context.Background(), documents.SalesInvoice{
		Number:   "INV-1002",
		Customer: "Acme Trading",
		Date:     day(2025, time.March, 6),
		Lines: []documents.InvoiceLine{
			{Description: "Deposit", Quantity: dec("1"), UnitPrice: dec("500.00")},
		},
	}, "sales-clerk")
	require.NoError(t, err)

	// No VAT line at all: a zero line is dropped, not posted as 0.00.
	assert.False(t, hasLineOn(entry, "2100"))
	assert.Len(t, entry.Lines, 2)
	assert.Equal(t, "500.00", entry.TotalDebit.StringFixed(2))
}

func TestPostSalesInvoice_MixedRates(t *testing.T) {
	f := newFixture(t)
	svc := documents.NewInvoiceService(f.engine, f.resolver, f.mem)

	entry, err := svc.PostSalesInvoice(context.Background(), documents.SalesInvoice{
		Number:   "INV-1003",
		Customer: "Acme Trading",
		Date:     day(2025, time.March, 7),
		Lines: []documents.InvoiceLine{
			{Description: "Standard goods", Quantity: dec("2"), UnitPrice: dec("30.00"), TaxCode: "VAT15"},
			{Description: "Zero-rated export", Quantity: dec("1"), UnitPrice: dec("80.00"), TaxCode: "VAT0"},
		},
	}, "sales-clerk")
	require.NoError(t, err)

	// 60.00 @ 15% + 80.00 @ 0% = 140.00 net, 9.00 tax, 149.00 gross.
	assert.Equal(t, "149.00", lineOn(t, entry, "1200").Debit.StringFixed(2))
	assert.Equal(t, "140.00", lineOn(t, entry, "4000").Credit.StringFixed(2))
	assert.Equal(t, "9.00", lineOn(t, entry, "2100").Credit.StringFixed(2))
}

func TestPostSalesInvoice_MissingRevenueMapping(t *testing.T) {
	f := newFixture(t)
	svc := documents.NewInvoiceService(f.engine, f.resolver, f.mem)
	ctx := context.Background()

	// Point the revenue mapping at an account that does not exist and
	// leave no fallback: nothing half-coded may post.
	require.NoError(t, f.mem.SaveMapping(ctx, ledger.AccountMapping{
		TransactionType: ledger.TxnSalesInvoiceRevenue,
		Module:          "sales",
		AccountCode:     "4999",
	}))

	_, err := svc.PostSalesInvoice(ctx, documents.SalesInvoice{
		Number:   "INV-1004",
		Customer: "Acme Trading",
		Date:     day(2025, time.March, 8),
		Lines:    []documents.InvoiceLine{{Quantity: dec("1"), UnitPrice: dec("10.00")}},
	}, "sales-clerk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrMissingAccountMapping))

	entries, err := f.mem.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPostVendorBill_Reclaimable(t *testing.T) {
	f := newFixture(t)
	svc := documents.NewInvoiceService(f.engine, f.resolver, f.mem)

	entry, err := svc.PostVendorBill(context.Background(), documents.VendorBill{
		Number: "BILL-2001",
		Vendor: "Office Supplies Co",
		Date:   day(2025, time.April, 2),
		Lines: []documents.BillLine{
			{Description: "Stationery", Amount: dec("40.00"), TaxCode: "VAT15"},
		},
	}, "purchase-clerk")
	require.NoError(t, err)

	// Dr Expense 40.00 / Dr Input VAT 6.00 / Cr AP 46.00
	assert.Equal(t, "40.00", lineOn(t, entry, "5500").Debit.StringFixed(2))
	assert.Equal(t, "6.00", lineOn(t, entry, "1250").Debit.StringFixed(2))
	assert.Equal(t, "46.00", lineOn(t, entry, "2000").Credit.StringFixed(2))
	assert.Equal(t, "purchase", entry.SourceModule)
}

func TestPostVendorBill_NoTaxCode(t *testing.T) {
	f := newFixture(t)
	svc := documents.NewInvoiceService(f.engine, f.resolver, f.mem)

	entry, err := svc.PostVendorBill(context.Background(), documents.VendorBill{
		Number: "BILL-2002",
		Vendor: "Courier",
		Date:   day(2025, time.April, 3),
		Lines:  []documents.BillLine{{Description: "Delivery", Amount: dec("15.50")}},
	}, "purchase-clerk")
	require.NoError(t, err)

	assert.False(t, hasLineOn(entry, "1250"))
	assert.Equal(t, "15.50", lineOn(t, entry, "2000").Credit.StringFixed(2))
}
