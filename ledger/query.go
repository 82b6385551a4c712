/*
query.go - Ledger query layer: balances, trial balance, VAT, aging

PURPOSE:
  Derives every report by aggregating posted lines; there is no
  separately maintained balance that can drift. The sign convention is
  the most bug-prone spot in the whole system and is centralized here:

    debit-natured  (asset, expense):          balance = opening + sum(debit - credit)
    credit-natured (liability, equity, income): balance = opening + sum(credit - debit)

  Given only posted (balanced) entries, the trial balance's debit and
  credit columns are equal for every as-of date.
*/
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Reporter aggregates posted lines into reports.
type Reporter struct {
	store Store
}

// NewReporter creates a reporter over the given store.
func NewReporter(store Store) *Reporter {
	return &Reporter{store: store}
}

// =============================================================================
// ACCOUNT BALANCE
// =============================================================================

// AccountBalance returns the account's natural-signed balance as of a
// date: opening balance plus all posted lines dated on or before it.
// A reversed entry and its reversal both count, netting to zero.
func (r *Reporter) AccountBalance(ctx context.Context, code string, asOf time.Time) (decimal.Decimal, error) {
	account, err := r.store.GetAccount(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAccountNotFound, code)
	}

	to := DateOnly(asOf)
	lines, err := r.store.PostedLines(ctx, LineFilter{AccountCode: code, To: &to})
	if err != nil {
		return decimal.Zero, err
	}

	balance := account.OpeningBalance
	for _, line := range lines {
		if account.Type.DebitNatured() {
			balance = balance.Add(line.Debit).Sub(line.Credit)
		} else {
			balance = balance.Add(line.Credit).Sub(line.Debit)
		}
	}
	return balance, nil
}

// =============================================================================
// TRIAL BALANCE
// =============================================================================

// TrialBalanceRow places one account's balance in the debit or credit
// column. A debit-natured account with a negative balance surfaces in
// the credit column, and vice versa, so contra balances land where an
// accountant expects them.
type TrialBalanceRow struct {
	AccountCode string
	AccountName string
	Type        AccountType
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// TrialBalance is the aggregate debits-equal-credits check across the
// whole chart.
type TrialBalance struct {
	AsOf        time.Time
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Balanced reports whether the two columns agree to the cent.
func (tb *TrialBalance) Balanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// TrialBalance computes a row for every active non-system account.
// Zero-balance accounts are included so the statement layout is stable.
func (r *Reporter) TrialBalance(ctx context.Context, asOf time.Time) (*TrialBalance, error) {
	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	tb := &TrialBalance{
		AsOf:        DateOnly(asOf),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, account := range accounts {
		if !account.IsActive || account.IsSystem {
			continue
		}
		balance, err := r.AccountBalance(ctx, account.Code, asOf)
		if err != nil {
			return nil, err
		}
		row := TrialBalanceRow{
			AccountCode: account.Code,
			AccountName: account.Name,
			Type:        account.Type,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		debitSide := account.Type.DebitNatured()
		if balance.IsNegative() {
			debitSide = !debitSide
			balance = balance.Neg()
		}
		if debitSide {
			row.Debit = balance
		} else {
			row.Credit = balance
		}
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	return tb, nil
}

// =============================================================================
// VAT SUMMARY
// =============================================================================

// VATSummary partitions VAT postings in a date range by tax type.
// Output tax accumulates on the tax codes' sales accounts
// (credit-natured), input tax on their purchase accounts.
type VATSummary struct {
	From        time.Time
	To          time.Time
	Output      map[TaxType]decimal.Decimal
	Input       map[TaxType]decimal.Decimal
	OutputTotal decimal.Decimal
	InputTotal  decimal.Decimal
	NetPayable  decimal.Decimal // output - input
}

// VATSummary aggregates posted lines on every tax-linked account in
// [from, to]. Lines on accounts no tax code points at are out of scope
// of the return and ignored.
func (r *Reporter) VATSummary(ctx context.Context, from, to time.Time) (*VATSummary, error) {
	taxCodes, err := r.store.ListTaxCodes(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(taxCodes, func(i, j int) bool {
		if taxCodes[i].IsDefault != taxCodes[j].IsDefault {
			return taxCodes[i].IsDefault
		}
		return taxCodes[i].Code < taxCodes[j].Code
	})

	type side struct {
		taxType TaxType
		output  bool
	}
	accountSides := make(map[string]side)
	var accountCodes []string
	// First tax code wins when two codes share an account: the lines
	// themselves carry no tax code, so one account partitions one way.
	for _, tc := range taxCodes {
		if tc.SalesAccountCode != "" {
			if _, seen := accountSides[tc.SalesAccountCode]; !seen {
				accountCodes = append(accountCodes, tc.SalesAccountCode)
				accountSides[tc.SalesAccountCode] = side{taxType: tc.Type, output: true}
			}
		}
		if tc.PurchaseAccountCode != "" {
			if _, seen := accountSides[tc.PurchaseAccountCode]; !seen {
				accountCodes = append(accountCodes, tc.PurchaseAccountCode)
				accountSides[tc.PurchaseAccountCode] = side{taxType: tc.Type, output: false}
			}
		}
	}

	summary := &VATSummary{
		From:        DateOnly(from),
		To:          DateOnly(to),
		Output:      make(map[TaxType]decimal.Decimal),
		Input:       make(map[TaxType]decimal.Decimal),
		OutputTotal: decimal.Zero,
		InputTotal:  decimal.Zero,
	}
	if len(accountCodes) == 0 {
		return summary, nil
	}

	f, t := summary.From, summary.To
	lines, err := r.store.PostedLines(ctx, LineFilter{AccountCodes: accountCodes, From: &f, To: &t})
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		s := accountSides[line.AccountCode]
		if s.output {
			amount := line.Credit.Sub(line.Debit) // output VAT accrues as credit
			summary.Output[s.taxType] = summary.Output[s.taxType].Add(amount)
			summary.OutputTotal = summary.OutputTotal.Add(amount)
		} else {
			amount := line.Debit.Sub(line.Credit) // input VAT accrues as debit
			summary.Input[s.taxType] = summary.Input[s.taxType].Add(amount)
			summary.InputTotal = summary.InputTotal.Add(amount)
		}
	}
	summary.NetPayable = summary.OutputTotal.Sub(summary.InputTotal)
	return summary, nil
}

// =============================================================================
// AGING (AR/AP)
// =============================================================================

// AgingRow buckets one open reference (invoice or bill number) on a
// control account by age from the as-of date.
type AgingRow struct {
	Reference  string
	Oldest     time.Time
	Current    decimal.Decimal // 0-30 days
	Days31to60 decimal.Decimal
	Days61to90 decimal.Decimal
	Over90     decimal.Decimal
	Total      decimal.Decimal
}

// AgingReport is the aged open balance of a receivable or payable
// control account.
type AgingReport struct {
	AccountCode string
	AsOf        time.Time
	Rows        []AgingRow
	Total       decimal.Decimal
}

// AgedReceivables buckets the open balance per reference on a
// receivable control account. References that net to zero (fully
// settled) are dropped.
func (r *Reporter) AgedReceivables(ctx context.Context, controlCode string, asOf time.Time) (*AgingReport, error) {
	return r.aging(ctx, controlCode, asOf, true)
}

// AgedPayables is the payable-side counterpart: open balances are
// measured as credit minus debit.
func (r *Reporter) AgedPayables(ctx context.Context, controlCode string, asOf time.Time) (*AgingReport, error) {
	return r.aging(ctx, controlCode, asOf, false)
}

func (r *Reporter) aging(ctx context.Context, controlCode string, asOf time.Time, debitNatured bool) (*AgingReport, error) {
	to := DateOnly(asOf)
	lines, err := r.store.PostedLines(ctx, LineFilter{AccountCode: controlCode, To: &to})
	if err != nil {
		return nil, err
	}

	// A reversal settles its original's reference. Fold reversal
	// lines into the original's bucket so the pair nets to zero and
	// drops out, instead of surfacing as two offsetting rows.
	refOf := make(map[string]string, len(lines))
	parent := make(map[string]string)
	for _, line := range lines {
		ref := line.Reference
		if ref == "" {
			ref = line.EntryNumber
		}
		refOf[line.EntryNumber] = ref
		if line.ReversalOf != "" {
			parent[line.EntryNumber] = line.ReversalOf
		}
	}
	bucketRef := func(number string) string {
		// Follow reversal-of-reversal chains back to the root entry.
		for {
			orig, ok := parent[number]
			if !ok {
				break
			}
			if _, known := refOf[orig]; !known {
				break
			}
			number = orig
		}
		return refOf[number]
	}

	type open struct {
		amount decimal.Decimal
		oldest time.Time
	}
	opens := make(map[string]*open)
	var order []string
	for _, line := range lines {
		ref := bucketRef(line.EntryNumber)
		o, ok := opens[ref]
		if !ok {
			o = &open{amount: decimal.Zero, oldest: line.Date}
			opens[ref] = o
			order = append(order, ref)
		}
		if line.Date.Before(o.oldest) {
			o.oldest = line.Date
		}
		if debitNatured {
			o.amount = o.amount.Add(line.Debit).Sub(line.Credit)
		} else {
			o.amount = o.amount.Add(line.Credit).Sub(line.Debit)
		}
	}

	report := &AgingReport{AccountCode: controlCode, AsOf: to, Total: decimal.Zero}
	for _, ref := range order {
		o := opens[ref]
		if o.amount.IsZero() {
			continue
		}
		row := AgingRow{
			Reference:  ref,
			Oldest:     o.oldest,
			Current:    decimal.Zero,
			Days31to60: decimal.Zero,
			Days61to90: decimal.Zero,
			Over90:     decimal.Zero,
			Total:      o.amount,
		}
		age := int(to.Sub(DateOnly(o.oldest)).Hours() / 24)
		switch {
		case age <= 30:
			row.Current = o.amount
		case age <= 60:
			row.Days31to60 = o.amount
		case age <= 90:
			row.Days61to90 = o.amount
		default:
			row.Over90 = o.amount
		}
		report.Total = report.Total.Add(o.amount)
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}
