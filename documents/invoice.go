/*
Package documents contains the document adapters: each one turns its
own business data (an invoice, a bill, a payroll run, a depreciation
month, a stock movement, a project expense) into exactly one balanced
draft journal entry and hands it to the posting engine.

CONTRACT WITH THE CORE:
  The core never reaches into these types; it only ever sees accounts
  and journal entries. Each adapter resolves its accounts through
  semantic mapping keys and fails with MissingAccountMappingError
  before building a single line if configuration is absent. No adapter
  ever posts an unbalanced or wrongly coded entry to "keep going".

SEE ALSO:
  - ledger/mapping.go: The transaction-type keys used here
  - ledger/posting.go: The engine every adapter calls
*/
package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/ledger"
)

// =============================================================================
// SALES INVOICE - Dr AR / Cr Revenue / Cr Output VAT
// =============================================================================

// InvoiceLine is one sellable line on a sales invoice.
type InvoiceLine struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxCode     string // empty = out of scope, no VAT
}

// Net is quantity * unit price, rounded to 2 decimal places.
func (l InvoiceLine) Net() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Round(2)
}

// SalesInvoice is the business document the sales module hands over.
type SalesInvoice struct {
	Number   string
	Customer string
	Date     time.Time
	Lines    []InvoiceLine
}

// InvoiceService posts sales invoices and vendor bills.
type InvoiceService struct {
	engine   *ledger.Engine
	resolver *ledger.Resolver
	store    ledger.Store
}

// NewInvoiceService wires the adapter to the posting core.
func NewInvoiceService(engine *ledger.Engine, resolver *ledger.Resolver, store ledger.Store) *InvoiceService {
	return &InvoiceService{engine: engine, resolver: resolver, store: store}
}

// PostSalesInvoice builds and posts the invoice's journal entry:
// Dr receivable (gross), Cr revenue (net), Cr output VAT (tax). VAT is
// derived per line from its tax code; a line without one carries none.
func (s *InvoiceService) PostSalesInvoice(ctx context.Context, inv SalesInvoice, actor string) (*ledger.JournalEntry, error) {
	receivable, err := s.resolver.Require(ctx, ledger.TxnSalesInvoiceReceivable, "1200")
	if err != nil {
		return nil, err
	}
	revenue, err := s.resolver.Require(ctx, ledger.TxnSalesInvoiceRevenue, "")
	if err != nil {
		return nil, err
	}
	outputVAT, err := s.resolver.Require(ctx, ledger.TxnSalesInvoiceOutputVAT, "")
	if err != nil {
		return nil, err
	}

	net := decimal.Zero
	tax := decimal.Zero
	for _, line := range inv.Lines {
		lineNet := line.Net()
		net = net.Add(lineNet)
		if line.TaxCode != "" {
			tc, err := s.store.GetTaxCode(ctx, line.TaxCode)
			if err != nil {
				return nil, err
			}
			tax = tax.Add(tc.TaxOn(lineNet))
		}
	}
	gross := net.Add(tax)

	entry := ledger.NewEntry(inv.Date, inv.Number,
		"Sales invoice "+inv.Number+" - "+inv.Customer, ledger.TypeStandard, "sales")
	entry.SystemGenerated = true
	if err := entry.AddLine(receivable.Code, inv.Customer, gross, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(revenue.Code, "Invoice "+inv.Number, decimal.Zero, net); err != nil {
		return nil, err
	}
	if err := entry.AddLine(outputVAT.Code, "VAT on "+inv.Number, decimal.Zero, tax); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}
	return entry, nil
}
