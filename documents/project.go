package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/ledger"
)

// =============================================================================
// PROJECT EXPENSE - Dr Project Expense / Cr Bank or AP
// =============================================================================

// ProjectExpense is one cost booked against a project. Paid expenses
// credit the bank; unpaid ones accrue to the payable account.
type ProjectExpense struct {
	Project     string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	Paid        bool
}

// ProjectService posts project expenses.
type ProjectService struct {
	engine   *ledger.Engine
	resolver *ledger.Resolver
}

// NewProjectService wires the adapter to the posting core.
func NewProjectService(engine *ledger.Engine, resolver *ledger.Resolver) *ProjectService {
	return &ProjectService{engine: engine, resolver: resolver}
}

// PostExpense books the cost against the project expense account.
func (s *ProjectService) PostExpense(ctx context.Context, exp ProjectExpense, actor string) (*ledger.JournalEntry, error) {
	expense, err := s.resolver.Require(ctx, ledger.TxnProjectExpense, "")
	if err != nil {
		return nil, err
	}
	creditKey := ledger.TxnProjectPayable
	creditFallback := "2000"
	if exp.Paid {
		creditKey = ledger.TxnBankDefault
		creditFallback = "1100"
	}
	credit, err := s.resolver.Require(ctx, creditKey, creditFallback)
	if err != nil {
		return nil, err
	}

	amount := exp.Amount.Round(2)
	entry := ledger.NewEntry(exp.Date, "PRJ-"+exp.Project,
		exp.Project+": "+exp.Description, ledger.TypeStandard, "projects")
	entry.SystemGenerated = true
	if err := entry.AddLine(expense.Code, exp.Description, amount, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(credit.Code, exp.Description, decimal.Zero, amount); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}
	return entry, nil
}
