package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/ledger"
)

// =============================================================================
// PAYROLL - run: Dr Salary Expense / Cr Salary Payable
//           payment: Dr Salary Payable / Cr Bank
// =============================================================================

// Payslip is one employee's gross pay inside a payroll run.
type Payslip struct {
	Employee string
	Gross    decimal.Decimal
}

// PayrollRun accrues one month's salaries. Month is "YYYY-MM".
type PayrollRun struct {
	Month    string
	Date     time.Time
	Payslips []Payslip
}

// Reference is the run's idempotency handle: one accrual per month.
func (p PayrollRun) Reference() string { return "PAY-" + p.Month }

// Total sums the gross pay of all payslips.
func (p PayrollRun) Total() decimal.Decimal {
	total := decimal.Zero
	for _, slip := range p.Payslips {
		total = total.Add(slip.Gross.Round(2))
	}
	return total
}

// PayrollService posts payroll accruals and payments.
type PayrollService struct {
	engine   *ledger.Engine
	resolver *ledger.Resolver
	store    ledger.Store
}

// NewPayrollService wires the adapter to the posting core.
func NewPayrollService(engine *ledger.Engine, resolver *ledger.Resolver, store ledger.Store) *PayrollService {
	return &PayrollService{engine: engine, resolver: resolver, store: store}
}

// PostRun accrues the run: Dr salary expense, Cr salary payable.
// A month that was already accrued is rejected, not silently re-posted.
func (s *PayrollService) PostRun(ctx context.Context, run PayrollRun, actor string) (*ledger.JournalEntry, error) {
	exists, err := s.store.ReferenceExists(ctx, run.Reference())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("payroll for %s (reference %s): %w", run.Month, run.Reference(), ledger.ErrDuplicateReference)
	}

	expense, err := s.resolver.Require(ctx, ledger.TxnPayrollSalaryExpense, "")
	if err != nil {
		return nil, err
	}
	payable, err := s.resolver.Require(ctx, ledger.TxnPayrollSalaryPayable, "")
	if err != nil {
		return nil, err
	}

	entry := ledger.NewEntry(run.Date, run.Reference(),
		"Payroll "+run.Month, ledger.TypeStandard, "hr")
	entry.SystemGenerated = true
	total := run.Total()
	if err := entry.AddLine(expense.Code, "Salaries "+run.Month, total, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(payable.Code, "Salaries payable "+run.Month, decimal.Zero, total); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}
	return entry, nil
}

// PostPayment settles accrued salaries: Dr salary payable, Cr bank.
func (s *PayrollService) PostPayment(ctx context.Context, month string, amount decimal.Decimal, date time.Time, actor string) (*ledger.JournalEntry, error) {
	payable, err := s.resolver.Require(ctx, ledger.TxnPayrollSalaryPayable, "")
	if err != nil {
		return nil, err
	}
	bank, err := s.resolver.Require(ctx, ledger.TxnPayrollBank, "1100")
	if err != nil {
		return nil, err
	}

	entry := ledger.NewEntry(date, "PAYOUT-"+month,
		"Salary payment "+month, ledger.TypeStandard, "hr")
	entry.SystemGenerated = true
	if err := entry.AddLine(payable.Code, "Settle salaries "+month, amount.Round(2), decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(bank.Code, "Salary payment "+month, decimal.Zero, amount.Round(2)); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}
	return entry, nil
}
