package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OAtef/coffeehouse/internal/core/domain"
	"github.com/OAtef/coffeehouse/internal/port"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) LoadOrderWithRecipes(ctx context.Context, orderID int64) (*domain.OrderDetail, error) {
	detail := &domain.OrderDetail{}

	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_name, status, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&detail.Order.ID, &detail.Order.CustomerName, &detail.Order.Status,
		&detail.Order.CreatedAt, &detail.Order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT oi.id, oi.menu_item_id, oi.recipe_id, oi.quantity,
		       ri.ingredient_id, ri.quantity_per_unit
		FROM order_items oi
		LEFT JOIN recipe_ingredients ri ON ri.recipe_id = oi.recipe_id
		WHERE oi.order_id = ?
		ORDER BY oi.id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var current *domain.LineItemDetail
	for rows.Next() {
		var (
			itemID, menuItemID int64
			recipeID           sql.NullInt64
			quantity           int
			ingredientID       sql.NullInt64
			quantityPerUnit    sql.NullFloat64
		)
		if err := rows.Scan(&itemID, &menuItemID, &recipeID, &quantity, &ingredientID, &quantityPerUnit); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		if current == nil || current.ID != itemID {
			detail.Items = append(detail.Items, domain.LineItemDetail{
				OrderLineItem: domain.OrderLineItem{
					ID:         itemID,
					OrderID:    orderID,
					MenuItemID: menuItemID,
					Quantity:   quantity,
				},
			})
			current = &detail.Items[len(detail.Items)-1]
			if recipeID.Valid {
				rid := recipeID.Int64
				current.RecipeID = &rid
				current.Recipe = &domain.Recipe{ID: rid, MenuItemID: menuItemID}
			}
		}

		if current.Recipe != nil && ingredientID.Valid {
			current.Recipe.Ingredients = append(current.Recipe.Ingredients, domain.RecipeIngredient{
				IngredientID:    ingredientID.Int64,
				QuantityPerUnit: quantityPerUnit.Float64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return detail, nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", domain.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (customer_name, status) VALUES (?, ?)`,
		order.CustomerName, domain.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	order.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	order.Status = domain.OrderStatusPending

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		// Snapshot the menu item's current recipe; later recipe edits only
		// affect future orders.
		var recipeID sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM recipes WHERE menu_item_id = ? ORDER BY id LIMIT 1`,
			item.MenuItemID,
		).Scan(&recipeID.Int64)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("resolve recipe for menu item %d: %w", item.MenuItemID, err)
		}
		recipeID.Valid = err == nil

		res, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, recipe_id, quantity)
			VALUES (?, ?, ?, ?)`,
			order.ID, item.MenuItemID, recipeID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		item.ID, _ = res.LastInsertId()
		if recipeID.Valid {
			rid := recipeID.Int64
			item.RecipeID = &rid
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit order: %v", domain.ErrTransactionFailed, err)
	}
	return nil
}

// UpdateOrderStatus reads the old status FOR UPDATE in the same transaction
// that writes the new one, serializing transitions per order.
func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (domain.OrderStatus, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: begin tx: %v", domain.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	var oldStatus domain.OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM orders WHERE id = ? FOR UPDATE`, orderID,
	).Scan(&oldStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query order status: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`,
		status, orderID,
	); err != nil {
		return "", fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: commit status update: %v", domain.ErrTransactionFailed, err)
	}
	return oldStatus, nil
}

// AdjustIngredient opens a transaction bound to a single ingredient, hands
// fn a consistent snapshot and commits the stock increment together with the
// ledger append. Transactions for different ingredients are independent.
func (m *MySQLAdapter) AdjustIngredient(ctx context.Context, ingredientID int64, fn func(ing domain.Ingredient, tx port.IngredientTx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", domain.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	var ing domain.Ingredient
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, unit, current_stock, cost_per_unit, waste_percentage, is_deleted, created_at, updated_at
		FROM ingredients WHERE id = ?`, ingredientID,
	).Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.CurrentStock, &ing.CostPerUnit,
		&ing.WastePercentage, &ing.IsDeleted, &ing.CreatedAt, &ing.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrIngredientNotFound
	}
	if err != nil {
		return fmt.Errorf("query ingredient: %w", err)
	}

	if err := fn(ing, &ingredientTx{tx: tx, ingredientID: ingredientID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit adjustment: %v", domain.ErrTransactionFailed, err)
	}
	return nil
}

type ingredientTx struct {
	tx           *sql.Tx
	ingredientID int64
}

func (t *ingredientTx) IncrementStock(ctx context.Context, delta float64) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE ingredients
		SET current_stock = current_stock + ?, updated_at = NOW()
		WHERE id = ?`, delta, t.ingredientID,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrIngredientNotFound
	}
	return nil
}

func (t *ingredientTx) AppendLedgerEntry(ctx context.Context, entry domain.LedgerEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO inventory_ledger (id, ingredient_id, stock_change, reason, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.IngredientID, entry.Change, entry.Reason, entry.ActorID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetIngredient(ctx context.Context, ingredientID int64) (*domain.Ingredient, error) {
	var ing domain.Ingredient
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, unit, current_stock, cost_per_unit, waste_percentage, is_deleted, created_at, updated_at
		FROM ingredients WHERE id = ?`, ingredientID,
	).Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.CurrentStock, &ing.CostPerUnit,
		&ing.WastePercentage, &ing.IsDeleted, &ing.CreatedAt, &ing.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIngredientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query ingredient: %w", err)
	}
	return &ing, nil
}

func (m *MySQLAdapter) ListLedger(ctx context.Context, ingredientID int64, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, ingredient_id, stock_change, reason, actor_id, created_at
		FROM inventory_ledger
		WHERE ingredient_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, ingredientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.IngredientID, &e.Change, &e.Reason, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
