package port

import (
	"context"

	"github.com/OAtef/coffeehouse/internal/core/domain"
)

type OrderRepository interface {
	// LoadOrderWithRecipes loads an order, its line items and the recipes
	// they reference, including per-unit ingredient quantities.
	// Returns domain.ErrOrderNotFound when the order does not exist.
	LoadOrderWithRecipes(ctx context.Context, orderID int64) (*domain.OrderDetail, error)

	// CreateOrder persists a new pending order with its line items and fills
	// in the generated IDs.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// UpdateOrderStatus writes the new status and returns the status it
	// replaced. The read and the write happen in one transaction so that
	// transitions for the same order are serialized.
	UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (domain.OrderStatus, error)
}
