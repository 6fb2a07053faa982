package tests

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/OAtef/coffeehouse/internal/adapter/storage"
	"github.com/OAtef/coffeehouse/internal/core/domain"
	"github.com/OAtef/coffeehouse/internal/core/service"
	"github.com/OAtef/coffeehouse/internal/infra/logger"
)

type testEnv struct {
	db      *sql.DB
	adapter *storage.MySQLAdapter
	policy  *service.TransitionPolicy
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/coffeehouse?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := goose.SetDialect("mysql"); err != nil {
		t.Fatalf("goose dialect: %v", err)
	}
	if err := goose.Up(db, "../migrations"); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	log := logger.New("dev")
	calc := service.NewConsumptionCalculator(adapter)
	adjuster := service.NewStockAdjuster(adapter, log, nil)
	policy := service.NewTransitionPolicy(calc, adjuster, nil, log)

	return &testEnv{
		db:      db,
		adapter: adapter,
		policy:  policy,
		cleanup: func() { db.Close() },
	}
}

func (env *testEnv) createIngredient(t *testing.T, stock float64) int64 {
	t.Helper()
	ctx := context.Background()
	res, err := env.db.ExecContext(ctx, `
		INSERT INTO ingredients (name, unit, current_stock) VALUES (?, 'g', ?)`,
		"itest-ingredient-"+uuid.New().String(), stock)
	if err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	id, _ := res.LastInsertId()
	t.Cleanup(func() {
		env.db.ExecContext(ctx, `DELETE FROM inventory_ledger WHERE ingredient_id = ?`, id)
		env.db.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE ingredient_id = ?`, id)
		env.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
	})
	return id
}

func (env *testEnv) createLatte(t *testing.T, ingredients map[int64]float64) int64 {
	t.Helper()
	ctx := context.Background()

	res, err := env.db.ExecContext(ctx, `
		INSERT INTO menu_items (name, price) VALUES (?, 5.00)`,
		"itest-latte-"+uuid.New().String())
	if err != nil {
		t.Fatalf("create menu item: %v", err)
	}
	menuItemID, _ := res.LastInsertId()

	res, err = env.db.ExecContext(ctx, `INSERT INTO recipes (menu_item_id) VALUES (?)`, menuItemID)
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	recipeID, _ := res.LastInsertId()

	for ingredientID, perUnit := range ingredients {
		if _, err := env.db.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity_per_unit)
			VALUES (?, ?, ?)`, recipeID, ingredientID, perUnit); err != nil {
			t.Fatalf("create recipe ingredient: %v", err)
		}
	}

	t.Cleanup(func() {
		env.db.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID)
		env.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, recipeID)
		env.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, menuItemID)
	})
	return menuItemID
}

func (env *testEnv) stockOf(t *testing.T, ingredientID int64) float64 {
	t.Helper()
	var stock float64
	if err := env.db.QueryRowContext(context.Background(), `
		SELECT current_stock FROM ingredients WHERE id = ?`, ingredientID,
	).Scan(&stock); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

func (env *testEnv) ledgerEntries(t *testing.T, ingredientID int64) []domain.LedgerEntry {
	t.Helper()
	entries, err := env.adapter.ListLedger(context.Background(), ingredientID, 100)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	return entries
}

// Full round trip through the real store: order creation, fulfillment debits
// stock with an audit row, cancellation credits it back with a second row.
func TestIntegration_OrderLifecycleAdjustsStock(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	beansID := env.createIngredient(t, 100)
	waterID := env.createIngredient(t, 1000)
	menuItemID := env.createLatte(t, map[int64]float64{beansID: 18, waterID: 60})

	order := &domain.Order{
		CustomerName: "integration-test",
		Items:        []domain.OrderLineItem{{MenuItemID: menuItemID, Quantity: 2}},
	}
	if err := env.adapter.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	t.Cleanup(func() {
		env.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, order.ID)
		env.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, order.ID)
	})

	// pending -> preparing: the order enters fulfillment, stock is debited once
	old, err := env.adapter.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if err := env.policy.OnOrderStatusChanged(ctx, order.ID, old, domain.OrderStatusPreparing, 42); err != nil {
		t.Fatalf("transition: %v", err)
	}

	if got := env.stockOf(t, beansID); got != 64 {
		t.Errorf("expected beans stock 64, got %v", got)
	}
	if got := env.stockOf(t, waterID); got != 880 {
		t.Errorf("expected water stock 880, got %v", got)
	}
	entries := env.ledgerEntries(t, beansID)
	if len(entries) != 1 || entries[0].Change != -36 {
		t.Fatalf("expected one -36 ledger entry for beans, got %+v", entries)
	}

	// preparing -> ready: inside the consuming set, must not double-debit
	old, err = env.adapter.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusReady)
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if err := env.policy.OnOrderStatusChanged(ctx, order.ID, old, domain.OrderStatusReady, 42); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got := env.stockOf(t, beansID); got != 64 {
		t.Errorf("expected beans stock still 64, got %v", got)
	}

	// ready -> cancelled: consumed stock is credited back
	old, err = env.adapter.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if err := env.policy.OnOrderStatusChanged(ctx, order.ID, old, domain.OrderStatusCancelled, 42); err != nil {
		t.Fatalf("transition: %v", err)
	}

	if got := env.stockOf(t, beansID); got != 100 {
		t.Errorf("expected beans stock restored to 100, got %v", got)
	}
	if got := env.stockOf(t, waterID); got != 1000 {
		t.Errorf("expected water stock restored to 1000, got %v", got)
	}

	entries = env.ledgerEntries(t, beansID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries (appended, not overwritten), got %d", len(entries))
	}
	var sum float64
	for _, e := range entries {
		sum += e.Change
	}
	if sum != 0 {
		t.Errorf("expected ledger sum 0 after round trip, got %v", sum)
	}
}

func TestIntegration_InsufficientStockGoesNegative(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	beansID := env.createIngredient(t, 10)
	menuItemID := env.createLatte(t, map[int64]float64{beansID: 18})

	order := &domain.Order{
		CustomerName: "integration-shortfall",
		Items:        []domain.OrderLineItem{{MenuItemID: menuItemID, Quantity: 2}},
	}
	if err := env.adapter.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	t.Cleanup(func() {
		env.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, order.ID)
		env.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, order.ID)
	})

	old, err := env.adapter.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if err := env.policy.OnOrderStatusChanged(ctx, order.ID, old, domain.OrderStatusPreparing, 42); err != nil {
		t.Fatalf("expected warn-and-continue, got: %v", err)
	}

	if got := env.stockOf(t, beansID); got != -26 {
		t.Errorf("expected negative stock -26, got %v", got)
	}
}

func TestIntegration_OrderWithoutRecipesTouchesNothing(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()

	// menu item with no recipe at all
	res, err := env.db.ExecContext(ctx, `
		INSERT INTO menu_items (name, price) VALUES (?, 2.00)`,
		"itest-bottled-water-"+uuid.New().String())
	if err != nil {
		t.Fatalf("create menu item: %v", err)
	}
	menuItemID, _ := res.LastInsertId()
	t.Cleanup(func() {
		env.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, menuItemID)
	})

	order := &domain.Order{
		CustomerName: "integration-norecipe",
		Items:        []domain.OrderLineItem{{MenuItemID: menuItemID, Quantity: 3}},
	}
	if err := env.adapter.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	t.Cleanup(func() {
		env.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, order.ID)
		env.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, order.ID)
	})

	old, err := env.adapter.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if err := env.policy.OnOrderStatusChanged(ctx, order.ID, old, domain.OrderStatusPreparing, 42); err != nil {
		t.Fatalf("transition: %v", err)
	}

	// the order had nothing to consume, so its ledger footprint must be zero
	var orderEntries int
	env.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inventory_ledger WHERE reason LIKE ?`,
		"order "+strconv.FormatInt(order.ID, 10)+":%").Scan(&orderEntries)
	if orderEntries != 0 {
		t.Errorf("expected zero ledger entries for order %d, got %d", order.ID, orderEntries)
	}
}
