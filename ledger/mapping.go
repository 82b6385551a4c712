/*
mapping.go - Account mapping resolver (account determination)

PURPOSE:
  Resolves semantic transaction-type keys ("sales_invoice_revenue") to
  concrete GL accounts. Document adapters are written against these
  keys, never against hard-coded account codes, so re-charting the
  books is a data change, not a code change.

RESOLUTION ORDER:
  1. Exact AccountMapping row for the transaction type
  2. The account with the caller-supplied fallback code
  3. None - a typed result, never a fabricated account

  "None" from GetAccountOrDefault is (nil, nil); Require converts it
  into MissingAccountMappingError so nothing unbalanced or wrongly
  coded ever posts.
*/
package ledger

import "context"

// AccountMapping links one semantic transaction type to one account.
// TransactionType is unique; Module records which adapter owns the key.
type AccountMapping struct {
	TransactionType string
	Module          string
	AccountCode     string
}

// =============================================================================
// TRANSACTION TYPE KEYS - The full set the document adapters post with
// =============================================================================

const (
	TxnSalesInvoiceReceivable = "sales_invoice_receivable"
	TxnSalesInvoiceRevenue    = "sales_invoice_revenue"
	TxnSalesInvoiceOutputVAT  = "sales_invoice_output_vat"

	TxnVendorBillExpense  = "vendor_bill_expense"
	TxnVendorBillInputVAT = "vendor_bill_input_vat"
	TxnVendorBillPayable  = "vendor_bill_payable"

	TxnPayrollSalaryExpense = "payroll_salary_expense"
	TxnPayrollSalaryPayable = "payroll_salary_payable"
	TxnPayrollBank          = "payroll_bank"

	TxnAssetDepreciationExpense = "asset_depreciation_expense"
	TxnAssetAccumDepreciation   = "asset_accumulated_depreciation"
	TxnAssetCost                = "asset_at_cost"
	TxnAssetDisposalProceeds    = "asset_disposal_proceeds"
	TxnAssetDisposalGainLoss    = "asset_disposal_gain_loss"

	TxnStockInventory   = "stock_inventory"
	TxnStockGRNClearing = "stock_grn_clearing"
	TxnStockCOGS        = "stock_cogs"
	TxnStockVariance    = "stock_variance"

	TxnProjectExpense = "project_expense"
	TxnProjectPayable = "project_payable"

	// TxnBankDefault is the shared default bank account for adapters
	// that settle in cash without a module-specific bank mapping.
	TxnBankDefault = "bank_default"
)

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver performs account determination against the store.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// GetAccountOrDefault resolves a transaction type to an account:
// exact mapping first, then the fallback code, then (nil, nil).
// Inactive accounts are treated as absent.
func (r *Resolver) GetAccountOrDefault(ctx context.Context, transactionType, fallbackCode string) (*Account, error) {
	mapping, err := r.store.GetMapping(ctx, transactionType)
	if err != nil {
		return nil, err
	}
	if mapping != nil {
		account, err := r.store.GetAccount(ctx, mapping.AccountCode)
		if err != nil {
			return nil, err
		}
		if account != nil && account.IsActive {
			return account, nil
		}
	}
	if fallbackCode == "" {
		return nil, nil
	}
	account, err := r.store.GetAccount(ctx, fallbackCode)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.IsActive {
		return nil, nil
	}
	return account, nil
}

// Require resolves like GetAccountOrDefault but turns absence into
// MissingAccountMappingError. Adapters call this before building any
// line.
func (r *Resolver) Require(ctx context.Context, transactionType, fallbackCode string) (*Account, error) {
	account, err := r.GetAccountOrDefault(ctx, transactionType, fallbackCode)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &MissingAccountMappingError{
			TransactionType: transactionType,
			FallbackCode:    fallbackCode,
		}
	}
	return account, nil
}
