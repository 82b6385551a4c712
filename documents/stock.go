package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/ledger"
)

// =============================================================================
// STOCK MOVEMENTS - in:  Dr Inventory / Cr GRN Clearing
//                   out: Dr COGS / Cr Inventory
//                   adjustment: Inventory vs Stock Variance, by sign
//                   transfer: no GL posting
// =============================================================================

// MovementType classifies a stock movement.
type MovementType string

const (
	StockIn         MovementType = "in"
	StockOut        MovementType = "out"
	StockAdjustment MovementType = "adjustment"
	StockTransfer   MovementType = "transfer"
)

// StockMovement is the business document the inventory module hands
// over. Quantity is positive for in/out/transfer; an adjustment's sign
// chooses whether inventory is written up or down.
type StockMovement struct {
	Number        string
	Type          MovementType
	ItemCode      string
	ItemName      string
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	Date          time.Time
	FromWarehouse string
	ToWarehouse   string
}

// Value is quantity * unit cost, rounded to 2 decimal places.
func (m StockMovement) Value() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.UnitCost).Round(2)
}

// StockLevels tracks on-hand quantity per item. The GL adapter reads
// it to guard stock-outs and pushes every posted movement into it.
type StockLevels interface {
	OnHand(ctx context.Context, itemCode string) (decimal.Decimal, error)
	Apply(ctx context.Context, itemCode string, delta decimal.Decimal) error
}

// StockService posts stock movements.
type StockService struct {
	engine   *ledger.Engine
	resolver *ledger.Resolver
	levels   StockLevels
}

// NewStockService wires the adapter to the posting core.
func NewStockService(engine *ledger.Engine, resolver *ledger.Resolver, levels StockLevels) *StockService {
	return &StockService{engine: engine, resolver: resolver, levels: levels}
}

// PostMovement posts one stock movement's GL entry and applies the
// quantity change.
//
// Transfers return (nil, nil): the two warehouse-level quantity
// changes carry no ledger trace. This mirrors the long-standing
// policy that internal transfers don't create GL entries; it is kept
// deliberately, pending product confirmation that the missing ledger
// trail is intended.
func (s *StockService) PostMovement(ctx context.Context, mv StockMovement, actor string) (*ledger.JournalEntry, error) {
	switch mv.Type {
	case StockTransfer:
		return nil, nil
	case StockIn:
		return s.postIn(ctx, mv, actor)
	case StockOut:
		return s.postOut(ctx, mv, actor)
	case StockAdjustment:
		return s.postAdjustment(ctx, mv, actor)
	default:
		return nil, fmt.Errorf("unknown stock movement type %q", mv.Type)
	}
}

func (s *StockService) postIn(ctx context.Context, mv StockMovement, actor string) (*ledger.JournalEntry, error) {
	inventory, err := s.resolver.Require(ctx, ledger.TxnStockInventory, "1300")
	if err != nil {
		return nil, err
	}
	clearing, err := s.resolver.Require(ctx, ledger.TxnStockGRNClearing, "")
	if err != nil {
		return nil, err
	}

	entry := ledger.NewEntry(mv.Date, mv.Number,
		"Goods receipt "+mv.ItemName, ledger.TypeStandard, "inventory")
	entry.SystemGenerated = true
	value := mv.Value()
	if err := entry.AddLine(inventory.Code, mv.ItemName, value, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(clearing.Code, "GRN "+mv.Number, decimal.Zero, value); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}
	if err := s.levels.Apply(ctx, mv.ItemCode, mv.Quantity.Abs()); err != nil {
		return entry, err
	}
	return entry, nil
}

func (s *StockService) postOut(ctx context.Context, mv StockMovement, actor string) (*ledger.JournalEntry, error) {
	onHand, err := s.levels.OnHand(ctx, mv.ItemCode)
	if err != nil {
		return nil, err
	}
	qty := mv.Quantity.Abs()
	if qty.GreaterThan(onHand) {
		return nil, &ledger.InsufficientStockError{ItemCode: mv.ItemCode, Requested: qty, OnHand: onHand}
	}

	cogs, err := s.resolver.Require(ctx, ledger.TxnStockCOGS, "")
	if err != nil {
		return nil, err
	}
	inventory, err := s.resolver.Require(ctx, ledger.TxnStockInventory, "1300")
	if err != nil {
		return nil, err
	}

	entry := ledger.NewEntry(mv.Date, mv.Number,
		"Goods issue "+mv.ItemName, ledger.TypeStandard, "inventory")
	entry.SystemGenerated = true
	value := mv.Value()
	if err := entry.AddLine(cogs.Code, mv.ItemName, value, decimal.Zero); err != nil {
		return nil, err
	}
	if err := entry.AddLine(inventory.Code, mv.ItemName, decimal.Zero, value); err != nil {
		return nil, err
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}
	if err := s.levels.Apply(ctx, mv.ItemCode, qty.Neg()); err != nil {
		return entry, err
	}
	return entry, nil
}

func (s *StockService) postAdjustment(ctx context.Context, mv StockMovement, actor string) (*ledger.JournalEntry, error) {
	inventory, err := s.resolver.Require(ctx, ledger.TxnStockInventory, "1300")
	if err != nil {
		return nil, err
	}
	variance, err := s.resolver.Require(ctx, ledger.TxnStockVariance, "")
	if err != nil {
		return nil, err
	}

	entry := ledger.NewEntry(mv.Date, mv.Number,
		"Stock adjustment "+mv.ItemName, ledger.TypeAdjustment, "inventory")
	entry.SystemGenerated = true
	value := mv.Value()
	if mv.Quantity.IsNegative() {
		// Write-down: expense the variance, relieve inventory.
		if err := entry.AddLine(variance.Code, mv.ItemName, value, decimal.Zero); err != nil {
			return nil, err
		}
		if err := entry.AddLine(inventory.Code, mv.ItemName, decimal.Zero, value); err != nil {
			return nil, err
		}
	} else {
		if err := entry.AddLine(inventory.Code, mv.ItemName, value, decimal.Zero); err != nil {
			return nil, err
		}
		if err := entry.AddLine(variance.Code, mv.ItemName, decimal.Zero, value); err != nil {
			return nil, err
		}
	}
	if err := s.engine.Post(ctx, entry, actor); err != nil {
		return nil, err
	}
	if err := s.levels.Apply(ctx, mv.ItemCode, mv.Quantity); err != nil {
		return entry, err
	}
	return entry, nil
}
