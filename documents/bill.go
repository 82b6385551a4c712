package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/ledger"
)

// =============================================================================
// VENDOR BILL - Dr Expense / Dr Input VAT / Cr AP
// =============================================================================

// BillLine is one charge on a vendor bill. Amount is net of VAT.
type BillLine struct {
	Description string
	Amount      decimal.Decimal
	TaxCode     string // empty = no reclaimable VAT
}

// VendorBill is the business document the purchase module hands over.
type VendorBill struct {
	Number string
	Vendor string
	Date   time.Time
	Lines  []BillLine
}

// PostVendorBill builds and posts the bill's journal entry:
// Dr expense (net), Dr input VAT (tax), Cr payable (gross).
func (s *InvoiceService) PostVendorBill(ctx context.Context, bill VendorBill, actor string) (*ledger.JournalEntry, error) {
	expense, err := s.resolver.Require(ctx, ledger.TxnVendorBillExpense, "")
	if err != nil {
		return nil, err
	}
	inputVAT, err := s.resolver.Require(ctx, ledger.TxnVendorBillInputVAT, "")
	if err != nil {
		return nil, err
	}
	payable, err := s.resolver.Require(ctx, ledger.TxnVendorBillPayable, "2000")
	if err != nil {
		return nil, err
	}

	net := decimal.Zero
	tax := decimal.Zero
	for _, line := range bill.Lines {
		net = net.Add(line.Amount.Round(2))
		if line.TaxCode != "" {
			tc, err := s.store.GetTaxCode(ctx, line.TaxCode)
			if err != nil {
				return nil, err
			}
			tax = tax.Add(tc.TaxOn(line.Amount.Round(2)))
		}
	}
	gross := net.Add(tax)

	entry := ledger.NewEntry(bill.Date, bill.Number,
		"Vendor bill "+bill.Number+" - "+bill.Vendor, ledger.TypeStandard, "purchase")
	entry.SystemGenerated = true
	if err := entry.AddLine(expense.Code, "Bill "+bill.Number, net, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(inputVAT.Code, "VAT on "+bill.Number, tax, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(payable.Code, bill.Vendor, decimal.Zero, gross); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}
	return entry, nil
}
