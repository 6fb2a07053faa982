package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OAtef/coffeehouse/internal/core/domain"
	"github.com/OAtef/coffeehouse/internal/infra/metrics"
	"github.com/OAtef/coffeehouse/internal/port"
)

// StockAdjuster applies an aggregated consumption map against ingredient
// stock counters and the append-only ledger. Each ingredient is adjusted in
// its own transaction; a failure halts the loop but leaves earlier commits
// in place.
type StockAdjuster struct {
	inventory port.InventoryRepository
	log       *slog.Logger
	metrics   *metrics.Recorder
}

func NewStockAdjuster(inventory port.InventoryRepository, log *slog.Logger, rec *metrics.Recorder) *StockAdjuster {
	return &StockAdjuster{inventory: inventory, log: log, metrics: rec}
}

func (a *StockAdjuster) Apply(ctx context.Context, entries []domain.ConsumptionEntry, direction domain.AdjustmentDirection, orderID, actorID int64) error {
	for _, e := range entries {
		if err := a.adjustOne(ctx, e, direction, orderID, actorID); err != nil {
			return fmt.Errorf("adjust ingredient %d for order %d: %w", e.IngredientID, orderID, err)
		}
		a.metrics.AdjustmentApplied(string(direction))
	}
	return nil
}

func (a *StockAdjuster) adjustOne(ctx context.Context, e domain.ConsumptionEntry, direction domain.AdjustmentDirection, orderID, actorID int64) error {
	return a.inventory.AdjustIngredient(ctx, e.IngredientID, func(ing domain.Ingredient, tx port.IngredientTx) error {
		delta := e.TotalQuantity
		if direction == domain.DirectionConsume {
			delta = -delta

			// Insufficient stock is a warning, not an error: the counter may
			// go negative and the shortfall stays visible until reconciled.
			if ing.CurrentStock < e.TotalQuantity {
				a.log.Warn("insufficient stock, proceeding",
					"ingredient_id", ing.ID,
					"ingredient", ing.Name,
					"required", e.TotalQuantity,
					"available", ing.CurrentStock,
					"order_id", orderID)
				a.metrics.InsufficientStock()
			}
		}

		if err := tx.IncrementStock(ctx, delta); err != nil {
			return err
		}

		entry := domain.LedgerEntry{
			ID:           uuid.New().String(),
			IngredientID: ing.ID,
			Change:       delta,
			Reason:       fmt.Sprintf("order %d: %s", orderID, direction),
			ActorID:      actorID,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
			return err
		}
		a.metrics.LedgerEntryWritten()

		a.log.Info("stock adjusted",
			"ingredient_id", ing.ID,
			"change", delta,
			"order_id", orderID,
			"actor_id", actorID)
		return nil
	})
}
