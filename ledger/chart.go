/*
chart.go - Default chart of accounts, mappings and tax codes

PURPOSE:
  The seed configuration a fresh database starts from: a small but
  complete chart covering every account the document adapters post to,
  the mapping rows that bind each semantic transaction type to a code,
  and a standard/zero/exempt/out-of-scope tax code set. Installed by
  cmd/server -seed and by tests.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultChart returns the seed chart of accounts.
func DefaultChart() []Account {
	mk := func(code, name string, t AccountType, category string) Account {
		return Account{
			Code: code, Name: name, Type: t, Category: category,
			IsActive: true, OpeningBalance: decimal.Zero,
		}
	}
	chart := []Account{
		mk("1000", "Cash", AccountAsset, "current_asset"),
		mk("1100", "Bank", AccountAsset, "current_asset"),
		mk("1200", "Accounts Receivable", AccountAsset, "current_asset"),
		mk("1250", "Input VAT", AccountAsset, "current_asset"),
		mk("1300", "Inventory", AccountAsset, "current_asset"),
		mk("1500", "Fixed Assets at Cost", AccountAsset, "fixed_asset"),
		mk("1600", "Accumulated Depreciation", AccountAsset, "fixed_asset"),
		mk("2000", "Accounts Payable", AccountLiability, "current_liability"),
		mk("2100", "Output VAT", AccountLiability, "current_liability"),
		mk("2150", "GRN Clearing", AccountLiability, "current_liability"),
		mk("2200", "Salaries Payable", AccountLiability, "current_liability"),
		mk("3000", "Owner's Equity", AccountEquity, "equity"),
		mk("3100", "Retained Earnings", AccountEquity, "equity"),
		mk("4000", "Sales Revenue", AccountIncome, "operating_income"),
		mk("4100", "Gain on Asset Disposal", AccountIncome, "other_income"),
		mk("5000", "Cost of Goods Sold", AccountExpense, "cost_of_sales"),
		mk("5100", "Salaries Expense", AccountExpense, "operating_expense"),
		mk("5200", "Depreciation Expense", AccountExpense, "operating_expense"),
		mk("5300", "Project Expenses", AccountExpense, "operating_expense"),
		mk("5400", "Stock Variance", AccountExpense, "operating_expense"),
		mk("5500", "General Expenses", AccountExpense, "operating_expense"),
	}
	// Accumulated depreciation carries a credit balance against the
	// asset-at-cost account.
	for i := range chart {
		if chart[i].Code == "1600" {
			chart[i].IsContra = true
		}
	}
	return chart
}

// DefaultMappings binds every adapter transaction type to its seed
// account.
func DefaultMappings() []AccountMapping {
	return []AccountMapping{
		{TransactionType: TxnSalesInvoiceReceivable, Module: "sales", AccountCode: "1200"},
		{TransactionType: TxnSalesInvoiceRevenue, Module: "sales", AccountCode: "4000"},
		{TransactionType: TxnSalesInvoiceOutputVAT, Module: "sales", AccountCode: "2100"},
		{TransactionType: TxnVendorBillExpense, Module: "purchase", AccountCode: "5500"},
		{TransactionType: TxnVendorBillInputVAT, Module: "purchase", AccountCode: "1250"},
		{TransactionType: TxnVendorBillPayable, Module: "purchase", AccountCode: "2000"},
		{TransactionType: TxnPayrollSalaryExpense, Module: "hr", AccountCode: "5100"},
		{TransactionType: TxnPayrollSalaryPayable, Module: "hr", AccountCode: "2200"},
		{TransactionType: TxnPayrollBank, Module: "hr", AccountCode: "1100"},
		{TransactionType: TxnAssetDepreciationExpense, Module: "assets", AccountCode: "5200"},
		{TransactionType: TxnAssetAccumDepreciation, Module: "assets", AccountCode: "1600"},
		{TransactionType: TxnAssetCost, Module: "assets", AccountCode: "1500"},
		{TransactionType: TxnAssetDisposalProceeds, Module: "assets", AccountCode: "1100"},
		{TransactionType: TxnAssetDisposalGainLoss, Module: "assets", AccountCode: "4100"},
		{TransactionType: TxnStockInventory, Module: "inventory", AccountCode: "1300"},
		{TransactionType: TxnStockGRNClearing, Module: "inventory", AccountCode: "2150"},
		{TransactionType: TxnStockCOGS, Module: "inventory", AccountCode: "5000"},
		{TransactionType: TxnStockVariance, Module: "inventory", AccountCode: "5400"},
		{TransactionType: TxnProjectExpense, Module: "projects", AccountCode: "5300"},
		{TransactionType: TxnProjectPayable, Module: "projects", AccountCode: "2000"},
		{TransactionType: TxnBankDefault, Module: "core", AccountCode: "1100"},
	}
}

// DefaultTaxCodes returns the seed VAT configuration. VAT15 is the
// default applied when a line names no tax code explicitly but asks
// for the default.
func DefaultTaxCodes() []TaxCode {
	return []TaxCode{
		{
			Code: "VAT15", Name: "Standard Rate 15%", Rate: MustDecimal("15"),
			Type: TaxStandard, SalesAccountCode: "2100", PurchaseAccountCode: "1250",
			IsDefault: true,
		},
		{
			Code: "VAT0", Name: "Zero Rated", Rate: decimal.Zero,
			Type: TaxZero,
		},
		{
			Code: "EXEMPT", Name: "Exempt", Rate: decimal.Zero,
			Type: TaxExempt,
		},
		{
			Code: "OOS", Name: "Out of Scope", Rate: decimal.Zero,
			Type: TaxOutOfScope,
		},
	}
}

// Seed installs the default chart, mappings and tax codes.
func Seed(ctx context.Context, store Store) error {
	for _, account := range DefaultChart() {
		if err := store.SaveAccount(ctx, account); err != nil {
			return err
		}
	}
	for _, mapping := range DefaultMappings() {
		if err := store.SaveMapping(ctx, mapping); err != nil {
			return err
		}
	}
	for _, taxCode := range DefaultTaxCodes() {
		if err := store.SaveTaxCode(ctx, taxCode); err != nil {
			return err
		}
	}
	return nil
}

// SeedCalendar installs a calendar fiscal year with monthly periods.
func SeedCalendar(ctx context.Context, store Store, year int) error {
	fy := CalendarFiscalYear(year)
	if err := store.SaveFiscalYear(ctx, fy); err != nil {
		return err
	}
	for _, period := range MonthlyPeriods(fy) {
		if err := store.SavePeriod(ctx, period); err != nil {
			return err
		}
	}
	return nil
}
