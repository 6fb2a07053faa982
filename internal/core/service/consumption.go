package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/OAtef/coffeehouse/internal/core/domain"
	"github.com/OAtef/coffeehouse/internal/port"
)

// ConsumptionCalculator aggregates the ingredient quantities an order
// requires: for every line item with a linked recipe, quantity-per-unit
// times line quantity, summed per ingredient across the whole order.
type ConsumptionCalculator struct {
	orders port.OrderRepository
}

func NewConsumptionCalculator(orders port.OrderRepository) *ConsumptionCalculator {
	return &ConsumptionCalculator{orders: orders}
}

// Compute is a pure read: it never touches stock and never validates
// sufficiency. An empty result is valid and means no adjustment is needed.
// Entries are sorted by ingredient ID so ledger writes are deterministic
// within one order.
func (c *ConsumptionCalculator) Compute(ctx context.Context, orderID int64) ([]domain.ConsumptionEntry, error) {
	detail, err := c.orders.LoadOrderWithRecipes(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}

	totals := make(map[int64]float64)
	for _, item := range detail.Items {
		if item.Recipe == nil {
			continue
		}
		for _, ri := range item.Recipe.Ingredients {
			totals[ri.IngredientID] += ri.QuantityPerUnit * float64(item.Quantity)
		}
	}

	entries := make([]domain.ConsumptionEntry, 0, len(totals))
	for id, qty := range totals {
		entries = append(entries, domain.ConsumptionEntry{IngredientID: id, TotalQuantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].IngredientID < entries[j].IngredientID })

	return entries, nil
}
