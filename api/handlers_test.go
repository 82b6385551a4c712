/*
handlers_test.go - HTTP-level tests for the posting API

Runs the real router against a seeded in-memory SQLite store, so every
request exercises the full stack: JSON decoding, the posting engine,
the transactional store and the error-to-status mapping.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearupae/gearuperp/ledger"
	"github.com/gearupae/gearuperp/store/sqlite"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, ledger.Seed(ctx, store))
	require.NoError(t, ledger.SeedCalendar(ctx, store, 2025))

	return NewRouter(NewHandler(store))
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

func manualEntry(amount string) PostEntryRequest {
	return PostEntryRequest{
		Date:      "2025-03-10",
		Reference: "SALE-1",
		Actor:     "alice",
		Lines: []EntryLineRequest{
			{AccountCode: "1000", Debit: amount},
			{AccountCode: "4000", Credit: amount},
		},
	}
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

func TestPostEntry_Created(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/entries/", manualEntry("250.00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	entry := decode[EntryDTO](t, rec)
	assert.Equal(t, "JE-2025-0001", entry.EntryNumber)
	assert.Equal(t, "posted", entry.Status)
	assert.Equal(t, "250.00", entry.TotalDebit)
	assert.Equal(t, "alice", entry.PostedBy)
	assert.Len(t, entry.Lines, 2)

	// The entry is readable back by number.
	rec = do(t, router, http.MethodGet, "/api/entries/JE-2025-0001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[EntryDTO](t, rec)
	assert.Equal(t, entry.EntryNumber, fetched.EntryNumber)
}

func TestPostEntry_UnbalancedIsClientError(t *testing.T) {
	router := newTestRouter(t)

	req := manualEntry("100.00")
	req.Lines[1].Credit = "99.99"
	rec := do(t, router, http.MethodPost, "/api/entries/", req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Contains(t, body.Details, "100")
}

func TestPostEntry_ActorRequired(t *testing.T) {
	router := newTestRouter(t)

	req := manualEntry("10.00")
	req.Actor = ""
	rec := do(t, router, http.MethodPost, "/api/entries/", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEntry_UnknownIs404(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/entries/JE-2025-9999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReverseEntry_Created(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/entries/", manualEntry("120.00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/entries/JE-2025-0001/reverse",
		ReverseEntryRequest{Actor: "bob", Reason: "posted in error"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	reversal := decode[EntryDTO](t, rec)
	assert.Equal(t, "RJE-2025-0001", reversal.EntryNumber)
	assert.Equal(t, "JE-2025-0001", reversal.ReversalOf)

	rec = do(t, router, http.MethodGet, "/api/entries/JE-2025-0001", nil)
	original := decode[EntryDTO](t, rec)
	assert.Equal(t, "reversed", original.Status)
	assert.Equal(t, "RJE-2025-0001", original.ReversedBy)
}

func TestReverseEntry_TwiceIsConflict(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/api/entries/", manualEntry("10.00"))
	reverse := ReverseEntryRequest{Actor: "bob"}
	rec := do(t, router, http.MethodPost, "/api/entries/JE-2025-0001/reverse", reverse)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/entries/JE-2025-0001/reverse", reverse)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetAuditTrail_RecordsActors(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/api/entries/", manualEntry("10.00"))
	do(t, router, http.MethodPost, "/api/entries/JE-2025-0001/reverse",
		ReverseEntryRequest{Actor: "bob", Reason: "dup"})

	rec := do(t, router, http.MethodGet, "/api/entries/JE-2025-0001/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	trail := decode[[]map[string]any](t, rec)
	require.Len(t, trail, 2)
	assert.Equal(t, "entry_posted", trail[0]["action"])
	assert.Equal(t, "alice", trail[0]["actor"])
	assert.Equal(t, "entry_reversed", trail[1]["action"])
	assert.Equal(t, "bob", trail[1]["actor"])
}

// =============================================================================
// PERIODS
// =============================================================================

func TestLockPeriod_BlocksPosting(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/periods/2025-03/lock",
		LockPeriodRequest{Locked: true, Actor: "controller"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/entries/", manualEntry("10.00"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Contains(t, body.Details, "2025-03")

	// Unlock and the same entry posts.
	rec = do(t, router, http.MethodPost, "/api/periods/2025-03/lock",
		LockPeriodRequest{Locked: false, Actor: "controller"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodPost, "/api/entries/", manualEntry("10.00"))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateCalendar_OpensAnotherYear(t *testing.T) {
	router := newTestRouter(t)

	// 2026 is outside the seeded calendar until the year is created.
	entry := manualEntry("10.00")
	entry.Date = "2026-02-10"
	rec := do(t, router, http.MethodPost, "/api/entries/", entry)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/periods/", CreateCalendarRequest{Year: 2026, Actor: "controller"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/entries/", entry)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	posted := decode[EntryDTO](t, rec)
	assert.Equal(t, "JE-2026-0001", posted.EntryNumber)
}

func TestCreateCalendar_RefreshKeepsLocks(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/periods/2025-03/lock",
		LockPeriodRequest{Locked: true, Actor: "controller"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/periods/", CreateCalendarRequest{Year: 2025, Actor: "controller"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/periods/", nil)
	periods := decode[[]PeriodDTO](t, rec)
	locked := false
	for _, p := range periods {
		if p.Name == "2025-03" {
			locked = p.IsLocked
		}
	}
	assert.True(t, locked, "calendar refresh dropped the period lock")
}

func TestSaveTaxCode_MovesDefaultFlag(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/tax-codes/", TaxCodeDTO{
		Code: "VAT5", Name: "Reduced Rate", Rate: "5", Type: "standard",
		SalesAccountCode: "2100", PurchaseAccountCode: "1250", IsDefault: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/tax-codes/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	codes := decode[[]TaxCodeDTO](t, rec)

	defaults := 0
	for _, tc := range codes {
		if tc.IsDefault {
			defaults++
			assert.Equal(t, "VAT5", tc.Code)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestSaveTaxCode_UnknownLinkedAccountRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/tax-codes/", TaxCodeDTO{
		Code: "VAT5", Name: "Reduced Rate", Rate: "5", Type: "standard",
		SalesAccountCode: "9999",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPeriods_SeededCalendar(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/periods/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	periods := decode[[]PeriodDTO](t, rec)
	assert.Len(t, periods, 12)
}

// =============================================================================
// DOCUMENTS AND REPORTS
// =============================================================================

func TestPostInvoice_ThenTrialBalanceAndAging(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/invoices", PostInvoiceRequest{
		Number:   "INV-1001",
		Customer: "Acme Trading",
		Date:     "2025-03-05",
		Actor:    "sales-clerk",
		Lines: []InvoiceLineRequest{
			{Description: "Widgets", Quantity: "4", UnitPrice: "25.00", TaxCode: "VAT15"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[EntryDTO](t, rec)
	assert.Equal(t, "115.00", entry.TotalDebit)
	assert.Equal(t, "sales", entry.SourceModule)

	rec = do(t, router, http.MethodGet, "/api/reports/trial-balance?as_of=2025-12-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tb := decode[TrialBalanceDTO](t, rec)
	assert.True(t, tb.Balanced)
	assert.Equal(t, tb.TotalDebit, tb.TotalCredit)

	rec = do(t, router, http.MethodGet, "/api/reports/aging/receivables?as_of=2025-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	aging := decode[AgingReportDTO](t, rec)
	require.Len(t, aging.Rows, 1)
	assert.Equal(t, "INV-1001", aging.Rows[0].Reference)
	assert.Equal(t, "115.00", aging.Rows[0].Current)
}

func TestGetVATSummary_RangeRequired(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/reports/vat", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetVATSummary_AfterInvoiceAndBill(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/api/invoices", PostInvoiceRequest{
		Number: "INV-1", Customer: "Acme", Date: "2025-03-05", Actor: "clerk",
		Lines: []InvoiceLineRequest{{Quantity: "1", UnitPrice: "100.00", TaxCode: "VAT15"}},
	})
	do(t, router, http.MethodPost, "/api/bills", PostBillRequest{
		Number: "BILL-1", Vendor: "Supplies Co", Date: "2025-03-20", Actor: "clerk",
		Lines: []BillLineRequest{{Amount: "40.00", TaxCode: "VAT15"}},
	})

	rec := do(t, router, http.MethodGet, "/api/reports/vat?from=2025-03-01&to=2025-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[VATSummaryDTO](t, rec)
	assert.Equal(t, "15.00", summary.OutputTotal)
	assert.Equal(t, "6.00", summary.InputTotal)
	assert.Equal(t, "9.00", summary.NetPayable)
}

func TestPostStockMovement_TransferPostsNothing(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/stock/movements", StockMovementRequest{
		Number: "GRN-1", Type: "in", ItemCode: "BOLT", ItemName: "Steel bolts",
		Quantity: "100", UnitCost: "2.50", Date: "2025-03-03", Actor: "stores",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/stock/movements", StockMovementRequest{
		Number: "TRF-1", Type: "transfer", ItemCode: "BOLT",
		Quantity: "50", UnitCost: "2.50", Date: "2025-03-12",
		FromWarehouse: "WH-MAIN", ToWarehouse: "WH-SITE", Actor: "stores",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["posted"])
}

func TestPostStockMovement_InsufficientStock(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/stock/movements", StockMovementRequest{
		Number: "ISS-1", Type: "out", ItemCode: "BOLT",
		Quantity: "5", UnitCost: "2.50", Date: "2025-03-03", Actor: "stores",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssetLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/assets/", CreateAssetRequest{
		Code: "M-1", Name: "Packing machine", Cost: "12000.00",
		UsefulLifeMonths: 60, Method: "straight_line", AcquiredOn: "2025-01-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/assets/depreciation-run",
		DepreciationRunRequest{Year: 2025, Month: 3, Actor: "assets-bot"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decode[DepreciationRunDTO](t, rec)
	assert.Equal(t, 1, run.Processed)
	assert.Equal(t, "200.00", run.Total)

	// Re-running the same month skips; nothing double-posts.
	rec = do(t, router, http.MethodPost, "/api/assets/depreciation-run",
		DepreciationRunRequest{Year: 2025, Month: 3, Actor: "assets-bot"})
	require.Equal(t, http.StatusOK, rec.Code)
	rerun := decode[DepreciationRunDTO](t, rec)
	assert.Equal(t, 0, rerun.Processed)
	assert.Equal(t, 1, rerun.Skipped)

	rec = do(t, router, http.MethodPost, "/api/assets/M-1/dispose",
		DisposeAssetRequest{Proceeds: "11800.00", Date: "2025-07-01", Actor: "assets-bot"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/assets/", nil)
	assets := decode[[]AssetDTO](t, rec)
	require.Len(t, assets, 1)
	assert.True(t, assets[0].Disposed)
}

func TestPostPayroll_DuplicateMonthRejected(t *testing.T) {
	router := newTestRouter(t)

	run := PostPayrollRequest{
		Month: "2025-03", Date: "2025-03-31", Actor: "hr-bot",
		Payslips: []PayslipRequest{{Employee: "F. Hassan", Gross: "5200.00"}},
	}
	rec := do(t, router, http.MethodPost, "/api/payroll/runs", run)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/payroll/runs", run)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestGetAccountBalance(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/api/entries/", manualEntry("250.00"))
	rec := do(t, router, http.MethodGet, "/api/accounts/1000/balance?as_of=2025-12-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	balance := decode[BalanceDTO](t, rec)
	assert.Equal(t, "250.00", balance.Balance)
	assert.Equal(t, "1000", balance.AccountCode)
}

func TestSaveMapping_UnknownAccountRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/mappings/", MappingDTO{
		TransactionType: ledger.TxnSalesInvoiceRevenue, Module: "sales", AccountCode: "9999",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}
