package domain

import "time"

type AdjustmentDirection string

const (
	DirectionConsume AdjustmentDirection = "consume"
	DirectionReturn  AdjustmentDirection = "return"
)

// ConsumptionEntry is one row of the aggregated per-order consumption map:
// the total quantity of a single ingredient required by the whole order.
type ConsumptionEntry struct {
	IngredientID  int64
	TotalQuantity float64
}

// LedgerEntry is one immutable row of the inventory audit trail. For any
// ingredient, current stock equals its initial stock plus the sum of all
// ledger changes.
type LedgerEntry struct {
	ID           string // uuid
	IngredientID int64
	Change       float64 // signed: negative on consume, positive on return
	Reason       string
	ActorID      int64
	CreatedAt    time.Time
}
