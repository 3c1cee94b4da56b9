package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pharmacy-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func setupSaleTest(t *testing.T) (*pgxpool.Pool, core.InventoryService, core.SaleEngine, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	inv := core.NewInventoryService(pool)
	engine := core.NewSaleEngine(pool, inv, core.DefaultLockTimeout)
	return pool, inv, engine, context.Background()
}

func countRows(t *testing.T, ctx context.Context, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

func TestSale_AllocatesEarliestExpiryFirst(t *testing.T) {
	pool, inv, engine, ctx := setupSaleTest(t)
	defer pool.Close()

	// Three batches out of insertion order: the sale must drain the soonest
	// expiry first and touch the undated batch last.
	late := addBatch(t, ctx, inv, 1, "LOT-LATE", "2028-01-01", 50)
	never := addBatch(t, ctx, inv, 1, "LOT-NEVER", "", 50)
	soon := addBatch(t, ctx, inv, 1, "LOT-SOON", "2026-12-01", 30)

	sale, err := engine.ProcessSale(ctx, core.SaleRequest{
		Items: []core.SaleLineInput{
			{MedicineID: 1, Quantity: 60, Price: decimal.NewFromFloat(2.50)},
		},
	})
	if err != nil {
		t.Fatalf("ProcessSale failed: %v", err)
	}

	// 30 from the soon batch, 30 from the late batch, nothing undated.
	if len(sale.Items) != 2 {
		t.Fatalf("Expected 2 allocation fragments, got %d", len(sale.Items))
	}
	if sale.Items[0].Quantity != 30 || sale.Items[1].Quantity != 30 {
		t.Errorf("Expected fragments of 30 and 30, got %d and %d", sale.Items[0].Quantity, sale.Items[1].Quantity)
	}

	if q := batchQty(t, ctx, pool, soon.ID); q != 0 {
		t.Errorf("Expected soonest batch drained to 0, got %d", q)
	}
	if q := batchQty(t, ctx, pool, late.ID); q != 20 {
		t.Errorf("Expected late batch at 20, got %d", q)
	}
	if q := batchQty(t, ctx, pool, never.ID); q != 50 {
		t.Errorf("Expected undated batch untouched at 50, got %d", q)
	}
}

func TestSale_TotalAmount(t *testing.T) {
	pool, inv, engine, ctx := setupSaleTest(t)
	defer pool.Close()

	addBatch(t, ctx, inv, 1, "LOT-A", "2027-06-30", 100)
	addBatch(t, ctx, inv, 2, "LOT-B", "2027-06-30", 100)

	sale, err := engine.ProcessSale(ctx, core.SaleRequest{
		Items: []core.SaleLineInput{
			{MedicineID: 1, Quantity: 4, Price: decimal.NewFromFloat(2.50)},
			{MedicineID: 2, Quantity: 3, Price: decimal.NewFromFloat(10.00)},
		},
	})
	if err != nil {
		t.Fatalf("ProcessSale failed: %v", err)
	}

	want := decimal.NewFromFloat(40.00) // 4*2.50 + 3*10.00
	if !sale.TotalAmount.Equal(want) {
		t.Errorf("Expected total %s, got %s", want, sale.TotalAmount)
	}

	fetched, err := engine.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	if !fetched.TotalAmount.Equal(want) {
		t.Errorf("Expected persisted total %s, got %s", want, fetched.TotalAmount)
	}
	if len(fetched.Items) != 2 {
		t.Errorf("Expected 2 sale items, got %d", len(fetched.Items))
	}
}

func TestSale_InsufficientStock_RollsBackEverything(t *testing.T) {
	pool, inv, engine, ctx := setupSaleTest(t)
	defer pool.Close()

	a := addBatch(t, ctx, inv, 1, "LOT-A", "2027-06-30", 100)
	b := addBatch(t, ctx, inv, 2, "LOT-B", "2027-06-30", 5)

	// First line is satisfiable, second is short by 5. Nothing may survive.
	_, err := engine.ProcessSale(ctx, core.SaleRequest{
		Items: []core.SaleLineInput{
			{MedicineID: 1, Quantity: 10, Price: decimal.NewFromFloat(2.50)},
			{MedicineID: 2, Quantity: 10, Price: decimal.NewFromFloat(4.00)},
		},
	})
	var ise *core.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if ise.MedicineID != 2 || ise.Requested != 10 || ise.Available != 5 {
		t.Errorf("Unexpected shortfall detail: %+v", ise)
	}

	if q := batchQty(t, ctx, pool, a.ID); q != 100 {
		t.Errorf("Expected first batch restored to 100, got %d", q)
	}
	if q := batchQty(t, ctx, pool, b.ID); q != 5 {
		t.Errorf("Expected second batch untouched at 5, got %d", q)
	}
	if n := countRows(t, ctx, pool, "sales"); n != 0 {
		t.Errorf("Expected no sale headers, got %d", n)
	}
	if n := countRows(t, ctx, pool, "sale_items"); n != 0 {
		t.Errorf("Expected no sale items, got %d", n)
	}
}

func TestSale_NoItems(t *testing.T) {
	pool, _, engine, ctx := setupSaleTest(t)
	defer pool.Close()

	// Unlike order and prescription headers, a sale with nothing sold is
	// meaningless and is rejected up front.
	_, err := engine.ProcessSale(ctx, core.SaleRequest{})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError for empty sale, got %v", err)
	}
}

func TestSale_UnknownMedicine(t *testing.T) {
	pool, _, engine, ctx := setupSaleTest(t)
	defer pool.Close()

	_, err := engine.ProcessSale(ctx, core.SaleRequest{
		Items: []core.SaleLineInput{
			{MedicineID: 99999, Quantity: 1, Price: decimal.NewFromFloat(1.00)},
		},
	})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError for unknown medicine, got %v", err)
	}
}

func TestSale_PrescriptionLinked(t *testing.T) {
	pool, inv, engine, ctx := setupSaleTest(t)
	defer pool.Close()

	addBatch(t, ctx, inv, 2, "LOT-RX", "2027-06-30", 20)

	prescriptions := core.NewPrescriptionService(pool, core.DefaultLockTimeout)
	rx, err := prescriptions.CreatePrescription(ctx, 1, 1, []core.PrescriptionItemInput{
		{MedicineID: 2, Dosage: "1 capsule twice daily", DurationDays: 7},
	})
	if err != nil {
		t.Fatalf("CreatePrescription failed: %v", err)
	}

	sale, err := engine.ProcessSale(ctx, core.SaleRequest{
		PrescriptionID: &rx.ID,
		Items: []core.SaleLineInput{
			{MedicineID: 2, Quantity: 14, Price: decimal.NewFromFloat(4.00)},
		},
	})
	if err != nil {
		t.Fatalf("ProcessSale failed: %v", err)
	}
	if sale.PrescriptionID == nil || *sale.PrescriptionID != rx.ID {
		t.Errorf("Expected sale linked to prescription %d, got %v", rx.ID, sale.PrescriptionID)
	}
}

func TestSale_ConcurrentSales_OnlyOneWins(t *testing.T) {
	pool, inv, engine, ctx := setupSaleTest(t)
	defer pool.Close()

	// 10 units total, two concurrent sales of 8 each: only one can commit.
	batch := addBatch(t, ctx, inv, 1, "LOT-RACE", "2027-06-30", 10)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.ProcessSale(ctx, core.SaleRequest{
				Items: []core.SaleLineInput{
					{MedicineID: 1, Quantity: 8, Price: decimal.NewFromFloat(2.50)},
				},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var ise *core.InsufficientStockError
		var ce *core.ContentionError
		if !errors.As(err, &ise) && !errors.As(err, &ce) {
			t.Errorf("Loser got unexpected error type: %v", err)
		}
	}
	if succeeded != 1 || failed != 1 {
		t.Fatalf("Expected exactly one winner, got %d winners and %d losers", succeeded, failed)
	}
	if q := batchQty(t, ctx, pool, batch.ID); q != 2 {
		t.Errorf("Expected 2 units left, got %d", q)
	}
	if n := countRows(t, ctx, pool, "sales"); n != 1 {
		t.Errorf("Expected exactly 1 committed sale, got %d", n)
	}
}

func TestSale_LockTimeoutContention(t *testing.T) {
	pool, inv, _, ctx := setupSaleTest(t)
	defer pool.Close()

	batch := addBatch(t, ctx, inv, 1, "LOT-HELD", "2027-06-30", 10)

	// Hold the batch row in a foreign transaction to force a lock wait.
	blocker, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Failed to begin blocking tx: %v", err)
	}
	defer blocker.Rollback(ctx)
	if _, err := blocker.Exec(ctx,
		"SELECT 1 FROM medicine_batches WHERE id = $1 FOR UPDATE", batch.ID,
	); err != nil {
		t.Fatalf("Failed to lock batch row: %v", err)
	}

	engine := core.NewSaleEngine(pool, inv, 200*time.Millisecond)
	_, err = engine.ProcessSale(ctx, core.SaleRequest{
		Items: []core.SaleLineInput{
			{MedicineID: 1, Quantity: 5, Price: decimal.NewFromFloat(2.50)},
		},
	})
	var ce *core.ContentionError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ContentionError after lock timeout, got %v", err)
	}
}
