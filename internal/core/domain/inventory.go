package domain

import "time"

type Ingredient struct {
	ID        int64
	Name      string
	Unit      string // free-form unit of measure, e.g. "g", "ml"
	// CurrentStock may go negative: a consume against insufficient stock is
	// a warning, not an error, and the shortfall stays visible until
	// reconciled.
	CurrentStock    float64
	CostPerUnit     float64
	WastePercentage float64
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Recipe struct {
	ID          int64
	MenuItemID  int64
	Variant     string
	Ingredients []RecipeIngredient
}

type RecipeIngredient struct {
	IngredientID    int64
	QuantityPerUnit float64
}

type MenuItem struct {
	ID        int64
	Name      string
	Price     float64
	Available bool
}
