package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StockWriter applies a delta to an item's counters inside the caller's
// database transaction.
type StockWriter interface {
	AdjustStock(ctx context.Context, itemID uuid.UUID, d Delta) error
}

// ApplyDelta is the effect of recording m.
//
//	sale:     full -= qty, empty += emptiesReturned
//	purchase: full += qty, empty -= qty
func (m Movement) ApplyDelta() Delta {
	switch m.Kind {
	case KindSale:
		return Delta{Full: -m.Quantity, Empty: m.EmptiesReturned}
	case KindPurchase:
		return Delta{Full: m.Quantity, Empty: -m.Quantity}
	default:
		return Delta{}
	}
}

// RevertDelta undoes ApplyDelta.
func (m Movement) RevertDelta() Delta {
	return m.ApplyDelta().Negate()
}

// Apply records m against its item.
func Apply(ctx context.Context, w StockWriter, m Movement) error {
	return write(ctx, w, m.ItemID, m.ApplyDelta())
}

// Revert removes the effect of m from its item.
func Revert(ctx context.Context, w StockWriter, m Movement) error {
	return write(ctx, w, m.ItemID, m.RevertDelta())
}

// Replace reverts prev then applies next. When both reference the same item
// the two deltas are folded into one write.
func Replace(ctx context.Context, w StockWriter, prev, next Movement) error {
	if prev.ItemID == next.ItemID {
		revert := prev.RevertDelta()
		apply := next.ApplyDelta()
		return write(ctx, w, next.ItemID, Delta{Full: revert.Full + apply.Full, Empty: revert.Empty + apply.Empty})
	}
	if err := Revert(ctx, w, prev); err != nil {
		return err
	}
	return Apply(ctx, w, next)
}

func write(ctx context.Context, w StockWriter, itemID uuid.UUID, d Delta) error {
	if d.IsZero() {
		return nil
	}
	if err := w.AdjustStock(ctx, itemID, d); err != nil {
		return fmt.Errorf("inventory: adjust %s: %w", itemID, err)
	}
	return nil
}
