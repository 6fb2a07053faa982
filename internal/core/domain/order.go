package domain

import "time"

type OrderStatus string

// The status set is open-ended on purpose: statuses outside the named
// constants are valid and treated as neutral by the transition policy.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID           int64
	CustomerName string
	Status       OrderStatus
	Items        []OrderLineItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type OrderLineItem struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	// RecipeID is snapshotted at order creation; nil when the menu item has
	// no recipe, in which case the line contributes nothing to consumption.
	RecipeID *int64
	Quantity int
}

// OrderDetail is an order loaded together with the recipes its line items
// reference, as returned by OrderRepository.LoadOrderWithRecipes.
type OrderDetail struct {
	Order Order
	Items []LineItemDetail
}

type LineItemDetail struct {
	OrderLineItem
	Recipe *Recipe
}
