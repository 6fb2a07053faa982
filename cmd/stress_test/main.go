// Stress tool: fires concurrent consume/return adjustments at a single
// ingredient and verifies the final stock equals the initial stock plus the
// sum of all committed deltas (no lost updates from interleaved orders).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/OAtef/coffeehouse/internal/adapter/storage"
	"github.com/OAtef/coffeehouse/internal/core/domain"
	"github.com/OAtef/coffeehouse/internal/core/service"
	"github.com/OAtef/coffeehouse/internal/infra/logger"
)

const (
	initialStock   = 1000.0
	consumeWorkers = 20
	returnWorkers  = 10
	opsPerWorker   = 25
	quantityPerOp  = 2.5
)

func main() {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/coffeehouse?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	name := "stress-" + uuid.New().String()
	res, err := db.ExecContext(ctx, `
		INSERT INTO ingredients (name, unit, current_stock) VALUES (?, 'g', ?)`,
		name, initialStock)
	if err != nil {
		log.Fatalf("failed to create ingredient: %v", err)
	}
	ingredientID, _ := res.LastInsertId()
	log.Printf("created ingredient %d with stock %.1f", ingredientID, initialStock)

	adapter := storage.NewMySQLAdapter(db)
	adjuster := service.NewStockAdjuster(adapter, logger.New(""), nil)

	entries := []domain.ConsumptionEntry{{IngredientID: ingredientID, TotalQuantity: quantityPerOp}}

	start := time.Now()
	var wg sync.WaitGroup
	runWorkers := func(n int, direction domain.AdjustmentDirection) {
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				for op := 0; op < opsPerWorker; op++ {
					opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
					orderID := int64(worker*opsPerWorker + op)
					if err := adjuster.Apply(opCtx, entries, direction, orderID, 1); err != nil {
						log.Printf("worker %d: adjustment failed: %v", worker, err)
					}
					cancel()
				}
			}(i)
		}
	}
	runWorkers(consumeWorkers, domain.DirectionConsume)
	runWorkers(returnWorkers, domain.DirectionReturn)
	wg.Wait()

	elapsed := time.Since(start)
	totalOps := (consumeWorkers + returnWorkers) * opsPerWorker
	log.Printf("completed %d adjustments in %v (%.0f ops/sec)",
		totalOps, elapsed, float64(totalOps)/elapsed.Seconds())

	expected := initialStock +
		quantityPerOp*float64(returnWorkers*opsPerWorker) -
		quantityPerOp*float64(consumeWorkers*opsPerWorker)

	var finalStock float64
	if err := db.QueryRowContext(ctx, `
		SELECT current_stock FROM ingredients WHERE id = ?`, ingredientID,
	).Scan(&finalStock); err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}

	var ledgerSum float64
	if err := db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(stock_change), 0) FROM inventory_ledger WHERE ingredient_id = ?`,
		ingredientID,
	).Scan(&ledgerSum); err != nil {
		log.Fatalf("failed to sum ledger: %v", err)
	}

	fmt.Printf("final stock:     %.3f (expected %.3f)\n", finalStock, expected)
	fmt.Printf("initial + ledger: %.3f\n", initialStock+ledgerSum)
	if finalStock != expected || finalStock != initialStock+ledgerSum {
		log.Fatal("MISMATCH: lost update or broken ledger invariant")
	}
	fmt.Println("OK: no lost updates, ledger invariant holds")
}
