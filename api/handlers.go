/*
handlers.go - HTTP API handlers for the general ledger

PURPOSE:
  Exposes the posting engine, reports and document adapters via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Entries:
    GET    /api/entries                     List journal entries
    POST   /api/entries                     Post a manual entry
    GET    /api/entries/{number}            Get one entry
    POST   /api/entries/{number}/reverse    Reverse a posted entry
    GET    /api/entries/{number}/audit      Audit trail for an entry

  Chart:
    GET    /api/accounts                    List accounts
    POST   /api/accounts                    Create/update account
    GET    /api/accounts/{code}             Get one account
    GET    /api/accounts/{code}/balance     Balance as of a date
    GET    /api/mappings                    List account mappings
    POST   /api/mappings                    Create/update mapping
    GET    /api/tax-codes                   List tax codes
    GET    /api/periods                     List accounting periods
    POST   /api/periods/{name}/lock         Lock or unlock a period

  Reports:
    GET    /api/reports/trial-balance       Trial balance
    GET    /api/reports/vat                 VAT summary
    GET    /api/reports/aging/receivables   Aged receivables
    GET    /api/reports/aging/payables      Aged payables

  Documents:
    POST   /api/invoices                    Post sales invoice
    POST   /api/bills                       Post vendor bill
    POST   /api/payroll/runs                Post payroll accrual
    POST   /api/payroll/payments            Post payroll settlement
    GET    /api/assets                      List fixed assets
    POST   /api/assets                      Register fixed asset
    POST   /api/assets/depreciation-run     Monthly depreciation batch
    POST   /api/assets/{code}/dispose       Dispose an asset
    POST   /api/stock/movements             Post stock movement
    POST   /api/projects/expenses           Post project expense

ERROR HANDLING:
  Domain errors map to HTTP status by classification:
  - 400: Validation errors (unbalanced, zero amount, missing mapping,
         insufficient stock, no fiscal year, locked period)
  - 404: Account or entry not found
  - 409: Invalid state transition, duplicate reference
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware currently. The actor on every mutating
  request is taken from the request body and trusted.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/documents"
	"github.com/gearupae/gearuperp/ledger"
	"github.com/gearupae/gearuperp/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Engine   *ledger.Engine
	Reporter *ledger.Reporter
	Resolver *ledger.Resolver

	Invoices *documents.InvoiceService
	Payroll  *documents.PayrollService
	Assets   *documents.AssetService
	Stock    *documents.StockService
	Projects *documents.ProjectService
}

// NewHandler wires the full service graph on top of one store.
func NewHandler(store *sqlite.Store) *Handler {
	engine := ledger.NewEngine(store).WithAudit(store)
	resolver := ledger.NewResolver(store)
	return &Handler{
		Store:    store,
		Engine:   engine,
		Reporter: ledger.NewReporter(store),
		Resolver: resolver,
		Invoices: documents.NewInvoiceService(engine, resolver, store),
		Payroll:  documents.NewPayrollService(engine, resolver, store),
		Assets:   documents.NewAssetService(engine, resolver, store, store),
		Stock:    documents.NewStockService(engine, resolver, store),
		Projects: documents.NewProjectService(engine, resolver),
	}
}

// =============================================================================
// JOURNAL ENTRY HANDLERS
// =============================================================================

// ListEntries returns journal entries, optionally filtered.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter := ledger.EntryFilter{
		SourceModule: r.URL.Query().Get("source"),
		Status:       ledger.EntryStatus(r.URL.Query().Get("status")),
	}
	if from, ok := parseQueryDate(r, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseQueryDate(r, "to"); ok {
		filter.To = &to
	}

	entries, err := h.Store.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i := range entries {
		dtos[i] = entryDTO(&entries[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEntry returns a single journal entry.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	entry, err := h.Store.GetEntry(r.Context(), number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get entry", err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "Entry not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, entryDTO(entry))
}

// PostEntry builds and posts a manual journal entry.
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	var req PostEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	entryType := ledger.EntryType(req.Type)
	if req.Type == "" {
		entryType = ledger.TypeStandard
	}

	entry := ledger.NewEntry(date, req.Reference, req.Description, entryType, "manual")
	for _, line := range req.Lines {
		debit, err := parseAmount(line.Debit)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid debit %q", line.Debit), err)
			return
		}
		credit, err := parseAmount(line.Credit)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid credit %q", line.Credit), err)
			return
		}
		if err := entry.AddLine(line.AccountCode, line.Description, debit, credit); err != nil {
			writeDomainError(w, "Invalid entry line", err)
			return
		}
	}

	if err := h.Engine.Post(r.Context(), entry, req.Actor); err != nil {
		writeDomainError(w, "Failed to post entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(entry))
}

// ReverseEntry posts a mirror entry and marks the original reversed.
func (h *Handler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var req ReverseEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	var reversalDate time.Time
	if req.Date != "" {
		var err error
		reversalDate, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	reversal, err := h.Engine.Reverse(r.Context(), number, req.Actor, req.Reason, reversalDate)
	if err != nil {
		writeDomainError(w, "Failed to reverse entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(reversal))
}

// GetAuditTrail returns the audit entries recorded for a journal entry.
func (h *Handler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	records, err := h.Store.List(r.Context(), number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get audit trail", err)
		return
	}

	type auditDTO struct {
		At          string            `json:"at"`
		Actor       string            `json:"actor"`
		Action      string            `json:"action"`
		EntryNumber string            `json:"entry_number,omitempty"`
		Changes     map[string]any    `json:"changes,omitempty"`
	}
	dtos := make([]auditDTO, len(records))
	for i, rec := range records {
		changes := make(map[string]any, len(rec.Changes))
		for field, ch := range rec.Changes {
			changes[field] = map[string]string{"old": ch.Old, "new": ch.New}
		}
		dtos[i] = auditDTO{
			At:          rec.At.Format(time.RFC3339),
			Actor:       rec.Actor,
			Action:      string(rec.Action),
			EntryNumber: rec.EntryNumber,
			Changes:     changes,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CHART HANDLERS
// =============================================================================

// ListAccounts returns the chart of accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = accountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	account, err := h.Store.GetAccount(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get account", err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, accountDTO(*account))
}

// CreateAccount creates or updates an account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	accountType := ledger.AccountType(req.Type)
	if !accountType.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid account type %q", req.Type), nil)
		return
	}
	opening, err := parseAmount(req.OpeningBalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid opening_balance", err)
		return
	}

	account := ledger.Account{
		Code:           req.Code,
		Name:           req.Name,
		Type:           accountType,
		Category:       req.Category,
		IsContra:       req.IsContra,
		IsSystem:       req.IsSystem,
		IsActive:       true,
		OpeningBalance: opening,
	}
	if err := h.Store.SaveAccount(r.Context(), account); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save account", err)
		return
	}
	writeJSON(w, http.StatusCreated, accountDTO(account))
}

// GetAccountBalance returns the signed balance of one account.
func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	asOf := queryDateOrNow(r, "as_of")

	account, err := h.Store.GetAccount(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get account", err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}

	balance, err := h.Reporter.AccountBalance(r.Context(), code, asOf)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		AccountCode: account.Code,
		AccountName: account.Name,
		Type:        string(account.Type),
		AsOf:        asOf.Format("2006-01-02"),
		Balance:     balance.String(),
	})
}

// ListMappings returns all account mappings.
func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.Store.ListMappings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list mappings", err)
		return
	}

	dtos := make([]MappingDTO, len(mappings))
	for i, m := range mappings {
		dtos[i] = MappingDTO{
			TransactionType: m.TransactionType,
			Module:          m.Module,
			AccountCode:     m.AccountCode,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveMapping creates or updates an account mapping.
func (h *Handler) SaveMapping(w http.ResponseWriter, r *http.Request) {
	var req MappingDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TransactionType == "" || req.AccountCode == "" {
		writeError(w, http.StatusBadRequest, "transaction_type and account_code are required", nil)
		return
	}

	// The target account must exist before the mapping can point at it.
	account, err := h.Store.GetAccount(r.Context(), req.AccountCode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up account", err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}

	mapping := ledger.AccountMapping{
		TransactionType: req.TransactionType,
		Module:          req.Module,
		AccountCode:     req.AccountCode,
	}
	if err := h.Store.SaveMapping(r.Context(), mapping); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save mapping", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListTaxCodes returns all tax codes.
func (h *Handler) ListTaxCodes(w http.ResponseWriter, r *http.Request) {
	taxCodes, err := h.Store.ListTaxCodes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tax codes", err)
		return
	}

	dtos := make([]TaxCodeDTO, len(taxCodes))
	for i, tc := range taxCodes {
		dtos[i] = TaxCodeDTO{
			Code:                tc.Code,
			Name:                tc.Name,
			Rate:                tc.Rate.String(),
			Type:                string(tc.Type),
			SalesAccountCode:    tc.SalesAccountCode,
			PurchaseAccountCode: tc.PurchaseAccountCode,
			IsDefault:           tc.IsDefault,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveTaxCode creates or updates a tax code. Setting is_default moves
// the default flag off every other code.
func (h *Handler) SaveTaxCode(w http.ResponseWriter, r *http.Request) {
	var req TaxCodeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", nil)
		return
	}
	rate, err := parseAmount(req.Rate)
	if err != nil || rate.IsNegative() {
		writeError(w, http.StatusBadRequest, "rate must be a non-negative decimal", err)
		return
	}

	taxType := ledger.TaxType(req.Type)
	switch taxType {
	case ledger.TaxStandard, ledger.TaxZero, ledger.TaxExempt, ledger.TaxOutOfScope:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid tax type %q", req.Type), nil)
		return
	}

	// Linked accounts must exist before VAT postings can target them.
	for _, code := range []string{req.SalesAccountCode, req.PurchaseAccountCode} {
		if code == "" {
			continue
		}
		account, err := h.Store.GetAccount(r.Context(), code)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to look up account", err)
			return
		}
		if account == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Account %s not found", code), nil)
			return
		}
	}

	tc := ledger.TaxCode{
		Code:                req.Code,
		Name:                req.Name,
		Rate:                rate,
		Type:                taxType,
		SalesAccountCode:    req.SalesAccountCode,
		PurchaseAccountCode: req.PurchaseAccountCode,
		IsDefault:           req.IsDefault,
	}
	if err := h.Store.SaveTaxCode(r.Context(), tc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tax code", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListPeriods returns all accounting periods.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Store.ListPeriods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list periods", err)
		return
	}

	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = PeriodDTO{
			Name:           p.Name,
			FiscalYearCode: p.FiscalYearCode,
			Start:          p.Start.Format("2006-01-02"),
			End:            p.End.Format("2006-01-02"),
			IsLocked:       p.IsLocked,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCalendar generates a calendar fiscal year with twelve monthly
// periods. Re-posting an existing year refreshes its rows and keeps
// any locks.
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req CreateCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year < 1900 || req.Year > 9999 {
		writeError(w, http.StatusBadRequest, "year out of range", nil)
		return
	}

	if err := ledger.SeedCalendar(r.Context(), h.Store, req.Year); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create fiscal year", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"fiscal_year": fmt.Sprintf("FY%d", req.Year),
		"periods":     12,
	})
}

// LockPeriod locks or unlocks an accounting period.
func (h *Handler) LockPeriod(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req LockPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	if err := h.Store.SetPeriodLock(r.Context(), name, req.Locked); err != nil {
		writeError(w, http.StatusNotFound, "Failed to lock period", err)
		return
	}

	changes := ledger.Changeset{}
	changes.Set("is_locked", fmt.Sprintf("%t", !req.Locked), fmt.Sprintf("%t", req.Locked))
	h.Store.Append(r.Context(), ledger.AuditEntry{
		At:      time.Now().UTC(),
		Actor:   req.Actor,
		Action:  ledger.AuditPeriodLocked,
		Changes: changes,
	})

	writeJSON(w, http.StatusOK, map[string]any{"period": name, "locked": req.Locked})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetTrialBalance returns the trial balance as of a date.
func (h *Handler) GetTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf := queryDateOrNow(r, "as_of")

	tb, err := h.Reporter.TrialBalance(r.Context(), asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build trial balance", err)
		return
	}

	rows := make([]TrialBalanceRowDTO, len(tb.Rows))
	for i, row := range tb.Rows {
		rows[i] = TrialBalanceRowDTO{
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			Type:        string(row.Type),
			Debit:       row.Debit.String(),
			Credit:      row.Credit.String(),
		}
	}
	writeJSON(w, http.StatusOK, TrialBalanceDTO{
		AsOf:        tb.AsOf.Format("2006-01-02"),
		Rows:        rows,
		TotalDebit:  tb.TotalDebit.String(),
		TotalCredit: tb.TotalCredit.String(),
		Balanced:    tb.Balanced(),
	})
}

// GetVATSummary returns output and input VAT for a date range.
func (h *Handler) GetVATSummary(w http.ResponseWriter, r *http.Request) {
	from, ok := parseQueryDate(r, "from")
	if !ok {
		writeError(w, http.StatusBadRequest, "from is required (YYYY-MM-DD)", nil)
		return
	}
	to, ok := parseQueryDate(r, "to")
	if !ok {
		writeError(w, http.StatusBadRequest, "to is required (YYYY-MM-DD)", nil)
		return
	}

	summary, err := h.Reporter.VATSummary(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build VAT summary", err)
		return
	}

	output := make(map[string]string, len(summary.Output))
	for taxType, amount := range summary.Output {
		output[string(taxType)] = amount.String()
	}
	input := make(map[string]string, len(summary.Input))
	for taxType, amount := range summary.Input {
		input[string(taxType)] = amount.String()
	}
	writeJSON(w, http.StatusOK, VATSummaryDTO{
		From:        summary.From.Format("2006-01-02"),
		To:          summary.To.Format("2006-01-02"),
		Output:      output,
		Input:       input,
		OutputTotal: summary.OutputTotal.String(),
		InputTotal:  summary.InputTotal.String(),
		NetPayable:  summary.NetPayable.String(),
	})
}

// GetAgedReceivables returns the aged open receivable balance.
func (h *Handler) GetAgedReceivables(w http.ResponseWriter, r *http.Request) {
	h.agingReport(w, r, true)
}

// GetAgedPayables returns the aged open payable balance.
func (h *Handler) GetAgedPayables(w http.ResponseWriter, r *http.Request) {
	h.agingReport(w, r, false)
}

func (h *Handler) agingReport(w http.ResponseWriter, r *http.Request, receivable bool) {
	asOf := queryDateOrNow(r, "as_of")

	// The control account defaults to the module mapping; an explicit
	// account query parameter overrides it.
	code := r.URL.Query().Get("account")
	if code == "" {
		key, fallback := ledger.TxnVendorBillPayable, "2000"
		if receivable {
			key, fallback = ledger.TxnSalesInvoiceReceivable, "1200"
		}
		account, err := h.Resolver.Require(r.Context(), key, fallback)
		if err != nil {
			writeDomainError(w, "No control account configured", err)
			return
		}
		code = account.Code
	}

	var report *ledger.AgingReport
	var err error
	if receivable {
		report, err = h.Reporter.AgedReceivables(r.Context(), code, asOf)
	} else {
		report, err = h.Reporter.AgedPayables(r.Context(), code, asOf)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build aging report", err)
		return
	}

	rows := make([]AgingRowDTO, len(report.Rows))
	for i, row := range report.Rows {
		rows[i] = AgingRowDTO{
			Reference:  row.Reference,
			Oldest:     row.Oldest.Format("2006-01-02"),
			Current:    row.Current.String(),
			Days31to60: row.Days31to60.String(),
			Days61to90: row.Days61to90.String(),
			Over90:     row.Over90.String(),
			Total:      row.Total.String(),
		}
	}
	writeJSON(w, http.StatusOK, AgingReportDTO{
		AccountCode: report.AccountCode,
		AsOf:        report.AsOf.Format("2006-01-02"),
		Rows:        rows,
		Total:       report.Total.String(),
	})
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// PostInvoice posts a sales invoice to the ledger.
func (h *Handler) PostInvoice(w http.ResponseWriter, r *http.Request) {
	var req PostInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	invoice := documents.SalesInvoice{
		Number:   req.Number,
		Customer: req.Customer,
		Date:     date,
	}
	for _, line := range req.Lines {
		quantity, err := parseAmount(line.Quantity)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid quantity %q", line.Quantity), err)
			return
		}
		unitPrice, err := parseAmount(line.UnitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid unit_price %q", line.UnitPrice), err)
			return
		}
		invoice.Lines = append(invoice.Lines, documents.InvoiceLine{
			Description: line.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			TaxCode:     line.TaxCode,
		})
	}

	entry, err := h.Invoices.PostSalesInvoice(r.Context(), invoice, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to post invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(entry))
}

// PostBill posts a vendor bill to the ledger.
func (h *Handler) PostBill(w http.ResponseWriter, r *http.Request) {
	var req PostBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	bill := documents.VendorBill{
		Number: req.Number,
		Vendor: req.Vendor,
		Date:   date,
	}
	for _, line := range req.Lines {
		amount, err := parseAmount(line.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid amount %q", line.Amount), err)
			return
		}
		bill.Lines = append(bill.Lines, documents.BillLine{
			Description: line.Description,
			Amount:      amount,
			TaxCode:     line.TaxCode,
		})
	}

	entry, err := h.Invoices.PostVendorBill(r.Context(), bill, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to post bill", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(entry))
}

// PostPayrollRun accrues one month's payroll.
func (h *Handler) PostPayrollRun(w http.ResponseWriter, r *http.Request) {
	var req PostPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	run := documents.PayrollRun{Month: req.Month, Date: date}
	for _, slip := range req.Payslips {
		gross, err := parseAmount(slip.Gross)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid gross %q", slip.Gross), err)
			return
		}
		run.Payslips = append(run.Payslips, documents.Payslip{
			Employee: slip.Employee,
			Gross:    gross,
		})
	}

	entry, err := h.Payroll.PostRun(r.Context(), run, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to post payroll run", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(entry))
}

// PostPayrollPayment settles an accrued payroll month.
func (h *Handler) PostPayrollPayment(w http.ResponseWriter, r *http.Request) {
	var req PayrollPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	entry, err := h.Payroll.PostPayment(r.Context(), req.Month, amount, date, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to post payroll payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(entry))
}

// ListAssets returns the fixed asset register.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Store.ListAssets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assets", err)
		return
	}

	dtos := make([]AssetDTO, len(assets))
	for i, a := range assets {
		dtos[i] = assetDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAsset registers a fixed asset.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cost, err := parseAmount(req.Cost)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cost", err)
		return
	}
	salvage, err := parseAmount(req.Salvage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid salvage", err)
		return
	}
	if req.UsefulLifeMonths <= 0 {
		writeError(w, http.StatusBadRequest, "useful_life_months must be positive", nil)
		return
	}
	method := documents.DepreciationMethod(req.Method)
	if method != documents.StraightLine && method != documents.DecliningBalance {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid method %q", req.Method), nil)
		return
	}

	asset := documents.FixedAsset{
		Code:             req.Code,
		Name:             req.Name,
		Cost:             cost,
		Salvage:          salvage,
		UsefulLifeMonths: req.UsefulLifeMonths,
		Method:           method,
	}
	if req.AcquiredOn != "" {
		asset.AcquiredOn, err = time.Parse("2006-01-02", req.AcquiredOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid acquired_on format (use YYYY-MM-DD)", err)
			return
		}
	}

	if err := h.Store.SaveAsset(r.Context(), asset); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, assetDTO(asset))
}

// RunDepreciation posts one month's depreciation across all assets.
func (h *Handler) RunDepreciation(w http.ResponseWriter, r *http.Request) {
	var req DepreciationRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1-12", nil)
		return
	}

	assets, err := h.Store.ListAssets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assets", err)
		return
	}
	batch := make([]*documents.FixedAsset, len(assets))
	for i := range assets {
		batch[i] = &assets[i]
	}

	run := h.Assets.RunDepreciation(r.Context(), batch, req.Year, time.Month(req.Month), req.Actor)
	writeJSON(w, http.StatusOK, DepreciationRunDTO{
		Year:      run.Year,
		Month:     int(run.Month),
		Processed: run.Processed,
		Skipped:   run.Skipped,
		Failed:    run.Failed,
		Total:     run.Total.String(),
		Errors:    run.Errors,
		Skips:     run.Skips,
	})
}

// DisposeAsset posts an asset disposal with gain or loss.
func (h *Handler) DisposeAsset(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req DisposeAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	proceeds, err := parseAmount(req.Proceeds)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid proceeds", err)
		return
	}

	asset, err := h.Store.GetAsset(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get asset", err)
		return
	}
	if asset == nil {
		writeError(w, http.StatusNotFound, "Asset not found", nil)
		return
	}

	entry, err := h.Assets.DisposeAsset(r.Context(), asset, proceeds, date, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to dispose asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(entry))
}

// PostStockMovement posts a stock movement to the ledger.
func (h *Handler) PostStockMovement(w http.ResponseWriter, r *http.Request) {
	var req StockMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	quantity, err := parseAmount(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quantity", err)
		return
	}
	unitCost, err := parseAmount(req.UnitCost)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit_cost", err)
		return
	}

	movement := documents.StockMovement{
		Number:        req.Number,
		Type:          documents.MovementType(req.Type),
		ItemCode:      req.ItemCode,
		ItemName:      req.ItemName,
		Quantity:      quantity,
		UnitCost:      unitCost,
		Date:          date,
		FromWarehouse: req.FromWarehouse,
		ToWarehouse:   req.ToWarehouse,
	}

	entry, err := h.Stock.PostMovement(r.Context(), movement, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to post stock movement", err)
		return
	}
	if entry == nil {
		// Transfers move quantity between warehouses without touching
		// the ledger.
		writeJSON(w, http.StatusOK, map[string]any{
			"number": req.Number,
			"posted": false,
		})
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(entry))
}

// PostProjectExpense posts a project expense to the ledger.
func (h *Handler) PostProjectExpense(w http.ResponseWriter, r *http.Request) {
	var req ProjectExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	expense := documents.ProjectExpense{
		Project:     req.Project,
		Description: req.Description,
		Amount:      amount,
		Date:        date,
		Paid:        req.Paid,
	}

	entry, err := h.Projects.PostExpense(r.Context(), expense, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to post project expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryDTO(entry))
}

// =============================================================================
// HELPERS
// =============================================================================

func entryDTO(e *ledger.JournalEntry) EntryDTO {
	lines := make([]EntryLineDTO, len(e.Lines))
	for i, line := range e.Lines {
		lines[i] = EntryLineDTO{
			AccountCode: line.AccountCode,
			Description: line.Description,
			Debit:       line.Debit.String(),
			Credit:      line.Credit.String(),
		}
	}
	dto := EntryDTO{
		EntryNumber:     e.EntryNumber,
		Date:            e.Date.Format("2006-01-02"),
		Reference:       e.Reference,
		Description:     e.Description,
		Type:            string(e.Type),
		SourceModule:    e.SourceModule,
		Status:          string(e.Status),
		TotalDebit:      e.TotalDebit.String(),
		TotalCredit:     e.TotalCredit.String(),
		SystemGenerated: e.SystemGenerated,
		PostedBy:        e.PostedBy,
		ReversedBy:      e.ReversedBy,
		ReversalOf:      e.ReversalOf,
		Lines:           lines,
	}
	if !e.PostedAt.IsZero() {
		dto.PostedAt = e.PostedAt.Format(time.RFC3339)
	}
	return dto
}

func accountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		Code:           a.Code,
		Name:           a.Name,
		Type:           string(a.Type),
		Category:       a.Category,
		IsContra:       a.IsContra,
		IsSystem:       a.IsSystem,
		IsActive:       a.IsActive,
		OpeningBalance: a.OpeningBalance.String(),
	}
}

func assetDTO(a documents.FixedAsset) AssetDTO {
	dto := AssetDTO{
		Code:                    a.Code,
		Name:                    a.Name,
		Cost:                    a.Cost.String(),
		Salvage:                 a.Salvage.String(),
		UsefulLifeMonths:        a.UsefulLifeMonths,
		Method:                  string(a.Method),
		AccumulatedDepreciation: a.AccumulatedDepreciation.String(),
		BookValue:               a.BookValue().String(),
		Disposed:                a.Disposed,
	}
	if !a.AcquiredOn.IsZero() {
		dto.AcquiredOn = a.AcquiredOn.Format("2006-01-02")
	}
	return dto
}

// parseAmount parses a decimal string; empty means zero.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseQueryDate(r *http.Request, name string) (time.Time, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func queryDateOrNow(r *http.Request, name string) time.Time {
	if t, ok := parseQueryDate(r, name); ok {
		return t
	}
	return time.Now().UTC()
}

// writeDomainError maps a domain error to its HTTP status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
