package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pharmacy-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// addBatch is a seeding helper. expiry of "" means no expiry date.
func addBatch(t *testing.T, ctx context.Context, inv core.InventoryService, medicineID int, batchNumber, expiry string, qty int) *core.Batch {
	t.Helper()
	input := core.BatchInput{
		MedicineID:    medicineID,
		BatchNumber:   batchNumber,
		PurchasePrice: decimal.NewFromFloat(1.50),
		SellingPrice:  decimal.NewFromFloat(2.50),
		Quantity:      qty,
	}
	if expiry != "" {
		d, err := time.Parse("2006-01-02", expiry)
		if err != nil {
			t.Fatalf("Bad expiry in test: %v", err)
		}
		input.ExpiryDate = &d
	}
	b, err := inv.AddBatch(ctx, input)
	if err != nil {
		t.Fatalf("AddBatch %s failed: %v", batchNumber, err)
	}
	return b
}

func batchQty(t *testing.T, ctx context.Context, pool *pgxpool.Pool, batchID int) int {
	t.Helper()
	var qty int
	err := pool.QueryRow(ctx, "SELECT quantity_available FROM medicine_batches WHERE id = $1", batchID).Scan(&qty)
	if err != nil {
		t.Fatalf("Failed to read batch %d quantity: %v", batchID, err)
	}
	return qty
}

func TestInventory_AddBatch(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	b := addBatch(t, ctx, inv, 1, "LOT-A1", "2027-06-30", 100)
	if b.ID == 0 {
		t.Error("Expected a generated id")
	}
	if b.QuantityAvailable != 100 {
		t.Errorf("Expected quantity 100, got %d", b.QuantityAvailable)
	}
	if b.ExpiryDate == nil || b.ExpiryDate.Format("2006-01-02") != "2027-06-30" {
		t.Errorf("Expected expiry 2027-06-30, got %v", b.ExpiryDate)
	}

	total, err := inv.TotalAvailable(ctx, 1)
	if err != nil {
		t.Fatalf("TotalAvailable failed: %v", err)
	}
	if total != 100 {
		t.Errorf("Expected total 100, got %d", total)
	}
}

func TestInventory_AddBatch_NegativeQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inv := core.NewInventoryService(pool)

	_, err := inv.AddBatch(context.Background(), core.BatchInput{
		MedicineID:  1,
		BatchNumber: "LOT-BAD",
		Quantity:    -5,
	})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError for negative quantity, got %v", err)
	}
}

func TestInventory_AddBatch_UnknownMedicine(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inv := core.NewInventoryService(pool)

	_, err := inv.AddBatch(context.Background(), core.BatchInput{
		MedicineID:  99999,
		BatchNumber: "LOT-X",
		Quantity:    10,
	})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError for unknown medicine, got %v", err)
	}
}

func TestInventory_ListBatches_AllocationOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	// Inserted deliberately out of expiry order; one batch never expires.
	late := addBatch(t, ctx, inv, 1, "LOT-LATE", "2028-01-01", 10)
	never := addBatch(t, ctx, inv, 1, "LOT-NEVER", "", 10)
	soon := addBatch(t, ctx, inv, 1, "LOT-SOON", "2026-12-01", 10)

	batches, err := inv.ListBatches(ctx, 1)
	if err != nil {
		t.Fatalf("ListBatches failed: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	want := []int{soon.ID, late.ID, never.ID}
	for i, b := range batches {
		if b.ID != want[i] {
			t.Errorf("Position %d: expected batch %d, got %d (%s)", i, want[i], b.ID, b.BatchNumber)
		}
	}
}

func TestInventory_ListBatches_CreationOrderTieBreak(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	first := addBatch(t, ctx, inv, 2, "LOT-1", "2027-03-15", 5)
	second := addBatch(t, ctx, inv, 2, "LOT-2", "2027-03-15", 5)

	batches, err := inv.ListBatches(ctx, 2)
	if err != nil {
		t.Fatalf("ListBatches failed: %v", err)
	}
	if len(batches) != 2 || batches[0].ID != first.ID || batches[1].ID != second.ID {
		t.Errorf("Expected creation order [%d %d], got %+v", first.ID, second.ID, batches)
	}
}

func TestInventory_DeductTx_InsufficientQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	batch := addBatch(t, ctx, inv, 1, "LOT-SHORT", "2027-06-30", 5)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	// Callers pre-clamp to the available quantity, but the guard must hold
	// on its own if they do not.
	_, err = inv.DeductTx(ctx, tx, batch.ID, 8)
	var ise *core.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if ise.MedicineID != 1 || ise.Requested != 8 || ise.Available != 5 {
		t.Errorf("Unexpected shortfall detail: %+v", ise)
	}
	if ise.Shortfall() != 3 {
		t.Errorf("Expected shortfall 3, got %d", ise.Shortfall())
	}

	if q := batchQty(t, ctx, pool, batch.ID); q != 5 {
		t.Errorf("Expected batch untouched at 5, got %d", q)
	}
}

func TestInventory_DeductTx_UnknownBatch(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	_, err = inv.DeductTx(ctx, tx, 99999, 1)
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError for unknown batch, got %v", err)
	}
	if nf.Entity != "batch" || nf.ID != 99999 {
		t.Errorf("Unexpected not-found detail: %+v", nf)
	}
}

func TestInventory_GetInventoryStatus_IncludesZeroStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	addBatch(t, ctx, inv, 1, "LOT-A", "2027-06-30", 40)
	addBatch(t, ctx, inv, 1, "LOT-B", "2027-09-30", 60)

	status, err := inv.GetInventoryStatus(ctx)
	if err != nil {
		t.Fatalf("GetInventoryStatus failed: %v", err)
	}
	byCode := map[string]int{}
	for _, s := range status {
		byCode[s.MedicineCode] = s.TotalQuantity
	}
	if byCode["PARA500"] != 100 {
		t.Errorf("Expected PARA500 total 100, got %d", byCode["PARA500"])
	}
	// Medicines with no batches still appear, with a zero total.
	if total, ok := byCode["IBU400"]; !ok || total != 0 {
		t.Errorf("Expected IBU400 present with total 0, got %d (present=%v)", total, ok)
	}
}
