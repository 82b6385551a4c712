/*
assets.go - Fixed asset depreciation and disposal

PURPOSE:
  Monthly depreciation (straight line and declining balance) and asset
  disposal postings. The depreciation batch follows the per-item
  transaction rule: one posting per asset, a failing asset is logged
  and counted but never aborts the rest of the run, and a month that
  was already depreciated is an explicit, reported skip.

DEPRECIATION FORMULAS:
  straight_line:     (cost - salvage) / useful_life_months
  declining_balance: book_value * (2 / useful_life_months) each month

  The declining-balance rate is deliberately the flat 2/life-months
  monthly figure applied to the running book value, not an annual
  double-declining rate re-derived per year. Do not change it without
  a product decision; reports pin the resulting numbers.
*/
package documents

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/ledger"
)

// DepreciationMethod selects the monthly depreciation formula.
type DepreciationMethod string

const (
	StraightLine     DepreciationMethod = "straight_line"
	DecliningBalance DepreciationMethod = "declining_balance"
)

// FixedAsset is the asset register record the assets module owns.
type FixedAsset struct {
	Code                    string
	Name                    string
	Cost                    decimal.Decimal
	Salvage                 decimal.Decimal
	UsefulLifeMonths        int
	Method                  DepreciationMethod
	AcquiredOn              time.Time
	AccumulatedDepreciation decimal.Decimal
	Disposed                bool
}

// BookValue is cost minus accumulated depreciation.
func (a *FixedAsset) BookValue() decimal.Decimal {
	return a.Cost.Sub(a.AccumulatedDepreciation)
}

// MonthlyDepreciation computes this month's charge, rounded to 2
// decimal places and clamped so book value never falls below salvage.
func (a *FixedAsset) MonthlyDepreciation() decimal.Decimal {
	if a.UsefulLifeMonths <= 0 || a.Disposed {
		return decimal.Zero
	}
	remaining := a.BookValue().Sub(a.Salvage)
	if !remaining.IsPositive() {
		return decimal.Zero
	}

	var charge decimal.Decimal
	life := decimal.NewFromInt(int64(a.UsefulLifeMonths))
	switch a.Method {
	case DecliningBalance:
		rate := decimal.NewFromInt(2).Div(life)
		charge = a.BookValue().Mul(rate).Round(2)
	default: // straight line
		charge = a.Cost.Sub(a.Salvage).DivRound(life, 2)
	}
	if charge.GreaterThan(remaining) {
		charge = remaining
	}
	return charge
}

// DepreciationReference is the deterministic reference of one asset's
// monthly charge; its prior existence means the month is done.
func DepreciationReference(assetCode string, year int, month time.Month) string {
	return fmt.Sprintf("DEP-%s-%04d-%02d", assetCode, year, int(month))
}

// AssetStore persists the asset register.
type AssetStore interface {
	SaveAsset(ctx context.Context, a FixedAsset) error
	GetAsset(ctx context.Context, code string) (*FixedAsset, error)
	ListAssets(ctx context.Context) ([]FixedAsset, error)
}

// AssetService posts depreciation and disposals.
type AssetService struct {
	engine   *ledger.Engine
	resolver *ledger.Resolver
	store    ledger.Store
	assets   AssetStore // optional; batch runs update book values through it
}

// NewAssetService wires the adapter to the posting core. assets may be
// nil when the caller manages the register itself.
func NewAssetService(engine *ledger.Engine, resolver *ledger.Resolver, store ledger.Store, assets AssetStore) *AssetService {
	return &AssetService{engine: engine, resolver: resolver, store: store, assets: assets}
}

// =============================================================================
// MONTHLY DEPRECIATION
// =============================================================================

// DepreciationRun summarizes one batch: how many assets posted,
// how many were explicit skips, and which ones failed.
type DepreciationRun struct {
	Year      int
	Month     time.Month
	Processed int
	Skipped   int
	Failed    int
	Total     decimal.Decimal
	Errors    []string
	Skips     []string
}

// DepreciateAsset posts one asset's charge for a month:
// Dr depreciation expense, Cr accumulated depreciation. Returns
// (nil, nil) when the month is already posted or there is nothing
// left to depreciate - an explicit skip, not a failure.
func (s *AssetService) DepreciateAsset(ctx context.Context, asset *FixedAsset, year int, month time.Month, actor string) (*ledger.JournalEntry, error) {
	charge := asset.MonthlyDepreciation()
	if charge.IsZero() {
		return nil, nil
	}
	reference := DepreciationReference(asset.Code, year, month)
	exists, err := s.store.ReferenceExists(ctx, reference)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	expense, err := s.resolver.Require(ctx, ledger.TxnAssetDepreciationExpense, "")
	if err != nil {
		return nil, err
	}
	accum, err := s.resolver.Require(ctx, ledger.TxnAssetAccumDepreciation, "")
	if err != nil {
		return nil, err
	}

	date := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	entry := ledger.NewEntry(date, reference,
		fmt.Sprintf("Depreciation %s %04d-%02d", asset.Name, year, int(month)),
		ledger.TypeStandard, "assets")
	entry.SystemGenerated = true
	if err := entry.AddLine(expense.Code, asset.Name, charge, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(accum.Code, asset.Name, decimal.Zero, charge); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}

	asset.AccumulatedDepreciation = asset.AccumulatedDepreciation.Add(charge)
	if s.assets != nil {
		if err := s.assets.SaveAsset(ctx, *asset); err != nil {
			return entry, fmt.Errorf("depreciation posted but asset %s not updated: %w", asset.Code, err)
		}
	}
	return entry, nil
}

// RunDepreciation iterates the assets and posts each one in its own
// transaction. One asset's failure never blocks the others.
func (s *AssetService) RunDepreciation(ctx context.Context, assets []*FixedAsset, year int, month time.Month, actor string) *DepreciationRun {
	run := &DepreciationRun{Year: year, Month: month, Total: decimal.Zero}
	for _, asset := range assets {
		if asset.Disposed {
			run.Skipped++
			run.Skips = append(run.Skips, asset.Code+": disposed")
			continue
		}
		entry, err := s.DepreciateAsset(ctx, asset, year, month, actor)
		if err != nil {
			run.Failed++
			run.Errors = append(run.Errors, asset.Code+": "+err.Error())
			log.Printf("[Depreciation] %s failed: %v", asset.Code, err)
			continue
		}
		if entry == nil {
			run.Skipped++
			run.Skips = append(run.Skips, asset.Code+": already depreciated or fully written down")
			continue
		}
		run.Processed++
		run.Total = run.Total.Add(entry.TotalDebit)
	}
	log.Printf("[Depreciation] %04d-%02d: %d posted, %d skipped, %d failed",
		year, int(month), run.Processed, run.Skipped, run.Failed)
	return run
}

// =============================================================================
// DISPOSAL
// =============================================================================

// DisposeAsset writes the asset out of the books:
// Dr accumulated depreciation, Dr proceeds (bank), Dr loss or Cr gain,
// Cr asset at cost. The gain-or-loss side is chosen by the sign of
// proceeds minus book value and omitted entirely when they are equal.
func (s *AssetService) DisposeAsset(ctx context.Context, asset *FixedAsset, proceeds decimal.Decimal, date time.Time, actor string) (*ledger.JournalEntry, error) {
	if asset.Disposed {
		return nil, fmt.Errorf("asset %s is already disposed", asset.Code)
	}

	accum, err := s.resolver.Require(ctx, ledger.TxnAssetAccumDepreciation, "")
	if err != nil {
		return nil, err
	}
	atCost, err := s.resolver.Require(ctx, ledger.TxnAssetCost, "")
	if err != nil {
		return nil, err
	}
	proceedsAccount, err := s.resolver.Require(ctx, ledger.TxnAssetDisposalProceeds, "1100")
	if err != nil {
		return nil, err
	}
	gainLoss, err := s.resolver.Require(ctx, ledger.TxnAssetDisposalGainLoss, "")
	if err != nil {
		return nil, err
	}

	proceeds = proceeds.Round(2)
	result := proceeds.Sub(asset.BookValue()) // >0 gain, <0 loss

	entry := ledger.NewEntry(date, "DISP-"+asset.Code,
		"Disposal of "+asset.Name, ledger.TypeStandard, "assets")
	entry.SystemGenerated = true
	if err := entry.AddLine(accum.Code, asset.Name, asset.AccumulatedDepreciation, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(proceedsAccount.Code, "Disposal proceeds "+asset.Code, proceeds, decimal.Zero); err != nil {
		return nil, err
	}
	if result.IsNegative() {
		if err := entry.AddLine(gainLoss.Code, "Loss on disposal "+asset.Code, result.Neg(), decimal.Zero); err != nil {
			return nil, err
		}
	} else if result.IsPositive() {
		if err := entry.AddLine(gainLoss.Code, "Gain on disposal "+asset.Code, decimal.Zero, result); err != nil {
			return nil, err
		}
	}
	if err := entry.AddLine(atCost.Code, asset.Name, decimal.Zero, asset.Cost); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}

	asset.Disposed = true
	if s.assets != nil {
		if err := s.assets.SaveAsset(ctx, *asset); err != nil {
			return entry, fmt.Errorf("disposal posted but asset %s not updated: %w", asset.Code, err)
		}
	}
	return entry, nil
}
