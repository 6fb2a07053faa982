package port

import (
	"context"

	"github.com/OAtef/coffeehouse/internal/core/domain"
)

type InventoryRepository interface {
	// AdjustIngredient runs fn inside a transaction scoped to the single
	// ingredient. fn receives a consistent snapshot of the ingredient and a
	// handle for the stock update and the ledger append; both commit
	// together when fn returns nil and roll back together otherwise.
	// Returns domain.ErrIngredientNotFound when the ingredient is absent.
	AdjustIngredient(ctx context.Context, ingredientID int64, fn func(ing domain.Ingredient, tx IngredientTx) error) error

	// GetIngredient retrieves a single ingredient by ID.
	GetIngredient(ctx context.Context, ingredientID int64) (*domain.Ingredient, error)

	// ListLedger returns the most recent ledger entries for an ingredient,
	// newest first.
	ListLedger(ctx context.Context, ingredientID int64, limit int) ([]domain.LedgerEntry, error)
}

// IngredientTx is valid only for the duration of AdjustIngredient's fn.
type IngredientTx interface {
	// IncrementStock applies current_stock += delta as an atomic in-place
	// increment at the storage layer, never a read-then-overwrite.
	IncrementStock(ctx context.Context, delta float64) error

	// AppendLedgerEntry writes one immutable audit row in the same
	// transaction as the stock update.
	AppendLedgerEntry(ctx context.Context, entry domain.LedgerEntry) error
}
