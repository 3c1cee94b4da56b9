package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryService is the batch ledger: it owns physical stock as dated
// batches and is the only component that mutates batch quantities.
type InventoryService interface {
	// Standalone operations (manage their own transactions).

	// AddBatch inserts a new batch with the given starting quantity.
	AddBatch(ctx context.Context, input BatchInput) (*Batch, error)
	// ListBatches returns all of a medicine's batches in allocation order.
	// Non-locking; intended for read-only callers.
	ListBatches(ctx context.Context, medicineID int) ([]Batch, error)
	// TotalAvailable returns the sum of quantity available across all of a
	// medicine's batches.
	TotalAvailable(ctx context.Context, medicineID int) (int, error)
	// GetInventoryStatus returns per-medicine stock totals for every medicine
	// in the catalog, including those with zero stock.
	GetInventoryStatus(ctx context.Context) ([]StockSummary, error)

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by SaleEngine to keep deductions atomic with the sale records.

	// ListAllocatableTx returns batches with quantity available > 0 in
	// allocation order (earliest expiry first, no-expiry batches last, ties
	// broken by creation order) and locks each returned row.
	ListAllocatableTx(ctx context.Context, tx pgx.Tx, medicineID int) ([]Batch, error)
	// DeductTx subtracts qty from a batch and returns the updated quantity.
	// Fails with InsufficientStockError if qty exceeds the batch's current
	// availability, even though callers are expected to pre-check.
	DeductTx(ctx context.Context, tx pgx.Tx, batchID, qty int) (int, error)
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *inventoryService) AddBatch(ctx context.Context, input BatchInput) (*Batch, error) {
	if input.MedicineID <= 0 {
		return nil, &ValidationError{Field: "medicine_id", Reason: "must be a positive id"}
	}
	if input.BatchNumber == "" {
		return nil, &ValidationError{Field: "batch_number", Reason: "is required"}
	}
	if input.Quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if input.PurchasePrice.IsNegative() || input.SellingPrice.IsNegative() {
		return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	var expiry *string
	if input.ExpiryDate != nil {
		d := input.ExpiryDate.Format("2006-01-02")
		expiry = &d
	}

	b := &Batch{}
	var expiryOut *time.Time
	err := s.pool.QueryRow(ctx, `
		INSERT INTO medicine_batches (medicine_id, batch_number, expiry_date, purchase_price, selling_price, quantity_available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, medicine_id, batch_number, expiry_date, purchase_price, selling_price, quantity_available, created_at
	`, input.MedicineID, input.BatchNumber, expiry, input.PurchasePrice, input.SellingPrice, input.Quantity,
	).Scan(&b.ID, &b.MedicineID, &b.BatchNumber, &expiryOut, &b.PurchasePrice, &b.SellingPrice, &b.QuantityAvailable, &b.CreatedAt)
	if err != nil {
		return nil, mapPgError("insert batch", err)
	}
	b.ExpiryDate = expiryOut
	return b, nil
}

func (s *inventoryService) ListBatches(ctx context.Context, medicineID int) ([]Batch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, medicine_id, batch_number, expiry_date, purchase_price, selling_price, quantity_available, created_at
		FROM medicine_batches
		WHERE medicine_id = $1
		ORDER BY expiry_date ASC NULLS LAST, id ASC
	`, medicineID)
	if err != nil {
		return nil, mapPgError("list batches", err)
	}
	defer rows.Close()
	return scanBatches(rows)
}

func (s *inventoryService) TotalAvailable(ctx context.Context, medicineID int) (int, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM medicines WHERE id = $1)", medicineID,
	).Scan(&exists); err != nil {
		return 0, mapPgError("resolve medicine", err)
	}
	if !exists {
		return 0, &NotFoundError{Entity: "medicine", ID: medicineID}
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(quantity_available), 0) FROM medicine_batches WHERE medicine_id = $1",
		medicineID,
	).Scan(&total); err != nil {
		return 0, mapPgError("sum batch quantities", err)
	}
	return total, nil
}

func (s *inventoryService) GetInventoryStatus(ctx context.Context) ([]StockSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.code, m.name, COALESCE(SUM(b.quantity_available), 0) AS total_quantity
		FROM medicines m
		LEFT JOIN medicine_batches b ON b.medicine_id = m.id
		GROUP BY m.id, m.code, m.name
		ORDER BY m.name
	`)
	if err != nil {
		return nil, mapPgError("query inventory status", err)
	}
	defer rows.Close()

	var summaries []StockSummary
	for rows.Next() {
		var ss StockSummary
		if err := rows.Scan(&ss.MedicineID, &ss.MedicineCode, &ss.Name, &ss.TotalQuantity); err != nil {
			return nil, mapPgError("scan inventory status", err)
		}
		summaries = append(summaries, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("iterate inventory status", err)
	}
	return summaries, nil
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

// ListAllocatableTx locks each batch row it returns, so the quantities read
// here cannot be deducted by a concurrent sale until this transaction ends.
// A NULL expiry sorts last: undated stock is consumed only after all dated stock.
func (s *inventoryService) ListAllocatableTx(ctx context.Context, tx pgx.Tx, medicineID int) ([]Batch, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, medicine_id, batch_number, expiry_date, purchase_price, selling_price, quantity_available, created_at
		FROM medicine_batches
		WHERE medicine_id = $1 AND quantity_available > 0
		ORDER BY expiry_date ASC NULLS LAST, id ASC
		FOR UPDATE
	`, medicineID)
	if err != nil {
		return nil, mapPgError("lock allocatable batches", err)
	}
	defer rows.Close()
	return scanBatches(rows)
}

func (s *inventoryService) DeductTx(ctx context.Context, tx pgx.Tx, batchID, qty int) (int, error) {
	if qty <= 0 {
		return 0, &ValidationError{Field: "quantity", Reason: "deduction must be positive"}
	}

	var updated int
	err := tx.QueryRow(ctx, `
		UPDATE medicine_batches
		SET quantity_available = quantity_available - $2
		WHERE id = $1 AND quantity_available >= $2
		RETURNING quantity_available
	`, batchID, qty).Scan(&updated)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapPgError(fmt.Sprintf("deduct batch %d", batchID), err)
	}

	// Guard did not match: either the batch is gone or it is short.
	var medicineID, available int
	err = tx.QueryRow(ctx,
		"SELECT medicine_id, quantity_available FROM medicine_batches WHERE id = $1",
		batchID,
	).Scan(&medicineID, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &NotFoundError{Entity: "batch", ID: batchID}
	}
	if err != nil {
		return 0, mapPgError(fmt.Sprintf("inspect batch %d", batchID), err)
	}
	return 0, &InsufficientStockError{MedicineID: medicineID, Requested: qty, Available: available}
}

func scanBatches(rows pgx.Rows) ([]Batch, error) {
	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.MedicineID, &b.BatchNumber, &b.ExpiryDate,
			&b.PurchasePrice, &b.SellingPrice, &b.QuantityAvailable, &b.CreatedAt); err != nil {
			return nil, mapPgError("scan batch", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("iterate batches", err)
	}
	return batches, nil
}
