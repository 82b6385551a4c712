/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts cross the wire as JSON strings ("1234.56"), never floats.
  Handlers parse them with decimal.NewFromString so no binary rounding
  ever touches a posted amount.

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

// EntryLineDTO is one debit or credit line of a journal entry.
type EntryLineDTO struct {
	AccountCode string `json:"account_code"`
	Description string `json:"description,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// EntryDTO represents a journal entry in API responses.
type EntryDTO struct {
	EntryNumber     string         `json:"entry_number"`
	Date            string         `json:"date"`
	Reference       string         `json:"reference,omitempty"`
	Description     string         `json:"description,omitempty"`
	Type            string         `json:"type"`
	SourceModule    string         `json:"source_module"`
	Status          string         `json:"status"`
	TotalDebit      string         `json:"total_debit"`
	TotalCredit     string         `json:"total_credit"`
	SystemGenerated bool           `json:"system_generated"`
	PostedBy        string         `json:"posted_by,omitempty"`
	PostedAt        string         `json:"posted_at,omitempty"`
	ReversedBy      string         `json:"reversed_by,omitempty"`
	ReversalOf      string         `json:"reversal_of,omitempty"`
	Lines           []EntryLineDTO `json:"lines"`
}

// PostEntryRequest is a manual journal entry to post.
type PostEntryRequest struct {
	Date        string             `json:"date"`
	Reference   string             `json:"reference,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        string             `json:"type,omitempty"` // default "standard"
	Actor       string             `json:"actor"`
	Lines       []EntryLineRequest `json:"lines"`
}

// EntryLineRequest is one line of a manual entry.
type EntryLineRequest struct {
	AccountCode string `json:"account_code"`
	Description string `json:"description,omitempty"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
}

// ReverseEntryRequest reverses a posted entry.
type ReverseEntryRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
	Date   string `json:"date,omitempty"` // default: original entry date
}

// =============================================================================
// ACCOUNTS, MAPPINGS, TAX CODES
// =============================================================================

// AccountDTO represents a ledger account.
type AccountDTO struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Category       string `json:"category,omitempty"`
	IsContra       bool   `json:"is_contra"`
	IsSystem       bool   `json:"is_system"`
	IsActive       bool   `json:"is_active"`
	OpeningBalance string `json:"opening_balance"`
}

// BalanceDTO is the balance of one account at a date, after the
// account type's sign convention.
type BalanceDTO struct {
	AccountCode string `json:"account_code"`
	AccountName string `json:"account_name"`
	Type        string `json:"type"`
	AsOf        string `json:"as_of"`
	Balance     string `json:"balance"`
}

// MappingDTO binds a transaction type to an account.
type MappingDTO struct {
	TransactionType string `json:"transaction_type"`
	Module          string `json:"module"`
	AccountCode     string `json:"account_code"`
}

// TaxCodeDTO represents a tax code.
type TaxCodeDTO struct {
	Code                string `json:"code"`
	Name                string `json:"name"`
	Rate                string `json:"rate"`
	Type                string `json:"type"`
	SalesAccountCode    string `json:"sales_account_code,omitempty"`
	PurchaseAccountCode string `json:"purchase_account_code,omitempty"`
	IsDefault           bool   `json:"is_default"`
}

// =============================================================================
// PERIODS
// =============================================================================

// PeriodDTO represents an accounting period.
type PeriodDTO struct {
	Name           string `json:"name"`
	FiscalYearCode string `json:"fiscal_year_code"`
	Start          string `json:"start"`
	End            string `json:"end"`
	IsLocked       bool   `json:"is_locked"`
}

// CreateCalendarRequest generates a calendar fiscal year with monthly
// periods.
type CreateCalendarRequest struct {
	Year  int    `json:"year"`
	Actor string `json:"actor,omitempty"`
}

// LockPeriodRequest locks or unlocks a period.
type LockPeriodRequest struct {
	Locked bool   `json:"locked"`
	Actor  string `json:"actor"`
}

// =============================================================================
// REPORTS
// =============================================================================

// TrialBalanceRowDTO is one account's row in the trial balance.
type TrialBalanceRowDTO struct {
	AccountCode string `json:"account_code"`
	AccountName string `json:"account_name"`
	Type        string `json:"type"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// TrialBalanceDTO is the full trial balance.
type TrialBalanceDTO struct {
	AsOf        string               `json:"as_of"`
	Rows        []TrialBalanceRowDTO `json:"rows"`
	TotalDebit  string               `json:"total_debit"`
	TotalCredit string               `json:"total_credit"`
	Balanced    bool                 `json:"balanced"`
}

// VATSummaryDTO aggregates output and input VAT by tax type.
type VATSummaryDTO struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	Output      map[string]string `json:"output"`
	Input       map[string]string `json:"input"`
	OutputTotal string            `json:"output_total"`
	InputTotal  string            `json:"input_total"`
	NetPayable  string            `json:"net_payable"`
}

// AgingRowDTO is one open reference in an aging report.
type AgingRowDTO struct {
	Reference  string `json:"reference"`
	Oldest     string `json:"oldest"`
	Current    string `json:"current"`
	Days31to60 string `json:"days_31_60"`
	Days61to90 string `json:"days_61_90"`
	Over90     string `json:"over_90"`
	Total      string `json:"total"`
}

// AgingReportDTO is the aged open balance of a control account.
type AgingReportDTO struct {
	AccountCode string        `json:"account_code"`
	AsOf        string        `json:"as_of"`
	Rows        []AgingRowDTO `json:"rows"`
	Total       string        `json:"total"`
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// InvoiceLineRequest is one line of a sales invoice.
type InvoiceLineRequest struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TaxCode     string `json:"tax_code,omitempty"`
}

// PostInvoiceRequest posts a sales invoice to the ledger.
type PostInvoiceRequest struct {
	Number   string               `json:"number"`
	Customer string               `json:"customer"`
	Date     string               `json:"date"`
	Actor    string               `json:"actor"`
	Lines    []InvoiceLineRequest `json:"lines"`
}

// BillLineRequest is one line of a vendor bill.
type BillLineRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	TaxCode     string `json:"tax_code,omitempty"`
}

// PostBillRequest posts a vendor bill to the ledger.
type PostBillRequest struct {
	Number string            `json:"number"`
	Vendor string            `json:"vendor"`
	Date   string            `json:"date"`
	Actor  string            `json:"actor"`
	Lines  []BillLineRequest `json:"lines"`
}

// PayslipRequest is one employee's gross pay in a payroll run.
type PayslipRequest struct {
	Employee string `json:"employee"`
	Gross    string `json:"gross"`
}

// PostPayrollRequest accrues one month's payroll.
type PostPayrollRequest struct {
	Month    string           `json:"month"` // "YYYY-MM"
	Date     string           `json:"date"`
	Actor    string           `json:"actor"`
	Payslips []PayslipRequest `json:"payslips"`
}

// PayrollPaymentRequest settles an accrued payroll month from the bank.
type PayrollPaymentRequest struct {
	Month  string `json:"month"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Actor  string `json:"actor"`
}

// AssetDTO represents a fixed asset.
type AssetDTO struct {
	Code                    string `json:"code"`
	Name                    string `json:"name"`
	Cost                    string `json:"cost"`
	Salvage                 string `json:"salvage"`
	UsefulLifeMonths        int    `json:"useful_life_months"`
	Method                  string `json:"method"`
	AcquiredOn              string `json:"acquired_on,omitempty"`
	AccumulatedDepreciation string `json:"accumulated_depreciation"`
	BookValue               string `json:"book_value"`
	Disposed                bool   `json:"disposed"`
}

// CreateAssetRequest registers a fixed asset.
type CreateAssetRequest struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Cost             string `json:"cost"`
	Salvage          string `json:"salvage,omitempty"`
	UsefulLifeMonths int    `json:"useful_life_months"`
	Method           string `json:"method"` // straight_line | declining_balance
	AcquiredOn       string `json:"acquired_on,omitempty"`
}

// DepreciationRunRequest posts one month's depreciation for all assets.
type DepreciationRunRequest struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Actor string `json:"actor"`
}

// DepreciationRunDTO summarizes a depreciation batch.
type DepreciationRunDTO struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Total     string   `json:"total"`
	Errors    []string `json:"errors,omitempty"`
	Skips     []string `json:"skips,omitempty"`
}

// DisposeAssetRequest disposes a fixed asset.
type DisposeAssetRequest struct {
	Proceeds string `json:"proceeds"`
	Date     string `json:"date"`
	Actor    string `json:"actor"`
}

// StockMovementRequest posts a stock movement.
type StockMovementRequest struct {
	Number        string `json:"number"`
	Type          string `json:"type"` // in | out | adjustment | transfer
	ItemCode      string `json:"item_code"`
	ItemName      string `json:"item_name,omitempty"`
	Quantity      string `json:"quantity"`
	UnitCost      string `json:"unit_cost"`
	Date          string `json:"date"`
	FromWarehouse string `json:"from_warehouse,omitempty"`
	ToWarehouse   string `json:"to_warehouse,omitempty"`
	Actor         string `json:"actor"`
}

// ProjectExpenseRequest posts a project expense.
type ProjectExpenseRequest struct {
	Project     string `json:"project"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Paid        bool   `json:"paid"`
	Actor       string `json:"actor"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
