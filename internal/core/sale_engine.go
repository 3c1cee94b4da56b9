package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SaleEngine atomically turns a multi-line sale request into batch deductions
// and sale records. A sale either commits in full or leaves the ledger and all
// related tables untouched.
type SaleEngine interface {
	// ProcessSale allocates each requested line across the medicine's batches
	// earliest-expiry-first, records one sale item per batch fragment, and
	// persists the sale header with the computed total. Any shortfall aborts
	// the entire sale with an InsufficientStockError.
	ProcessSale(ctx context.Context, req SaleRequest) (*Sale, error)
	// GetSale returns a committed sale with its items.
	GetSale(ctx context.Context, saleID int) (*Sale, error)
}

type saleEngine struct {
	pool        *pgxpool.Pool
	inventory   InventoryService
	lockTimeout time.Duration
}

// NewSaleEngine constructs a SaleEngine backed by PostgreSQL. lockTimeout
// bounds how long one sale may wait on batches locked by a concurrent sale
// before aborting with a ContentionError; <= 0 selects DefaultLockTimeout.
func NewSaleEngine(pool *pgxpool.Pool, inventory InventoryService, lockTimeout time.Duration) SaleEngine {
	return &saleEngine{pool: pool, inventory: inventory, lockTimeout: lockTimeout}
}

func (s *saleEngine) ProcessSale(ctx context.Context, req SaleRequest) (*Sale, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one sale item is required"}
	}
	for i, it := range req.Items {
		if it.MedicineID <= 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].medicine_id", i), Reason: "must be a positive id"}
		}
		if it.Quantity <= 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		}
		if it.Price.IsNegative() {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].price", i), Reason: "must not be negative"}
		}
	}

	tx, err := beginWriteTx(ctx, s.pool, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Header first, with a zero total: items need the sale id, and the real
	// total is only known once every line has been allocated.
	sale := &Sale{PrescriptionID: req.PrescriptionID}
	if err := tx.QueryRow(ctx, `
		INSERT INTO sales (prescription_id, sale_date, total_amount)
		VALUES ($1, NOW(), 0)
		RETURNING id, sale_date
	`, req.PrescriptionID).Scan(&sale.ID, &sale.SaleDate); err != nil {
		return nil, mapPgError("insert sale", err)
	}

	var total decimal.Decimal
	for _, it := range req.Items {
		fragments, err := s.allocateLine(ctx, tx, sale.ID, it)
		if err != nil {
			return nil, err
		}
		for _, f := range fragments {
			total = total.Add(f.Price.Mul(decimal.NewFromInt(int64(f.Quantity))))
		}
		sale.Items = append(sale.Items, fragments...)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE sales SET total_amount = $1 WHERE id = $2", total, sale.ID,
	); err != nil {
		return nil, mapPgError("update sale total", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError("commit sale", err)
	}

	sale.TotalAmount = total
	return sale, nil
}

// allocateLine walks the medicine's allocatable batches in expiry order,
// deducting until the requested quantity is satisfied. Each deduction is
// recorded as one sale item at the line's price. A shortfall fails the whole
// transaction; nothing taken for this or any earlier line survives.
func (s *saleEngine) allocateLine(ctx context.Context, tx pgx.Tx, saleID int, line SaleLineInput) ([]SaleItem, error) {
	batches, err := s.inventory.ListAllocatableTx(ctx, tx, line.MedicineID)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM medicines WHERE id = $1)", line.MedicineID,
		).Scan(&exists); err != nil {
			return nil, mapPgError("resolve medicine", err)
		}
		if !exists {
			return nil, &NotFoundError{Entity: "medicine", ID: line.MedicineID}
		}
	}

	remaining := line.Quantity
	var items []SaleItem
	for _, b := range batches {
		if remaining <= 0 {
			break
		}
		take := remaining
		if b.QuantityAvailable < take {
			take = b.QuantityAvailable
		}
		if _, err := s.inventory.DeductTx(ctx, tx, b.ID, take); err != nil {
			return nil, err
		}

		item := SaleItem{SaleID: saleID, MedicineID: line.MedicineID, Quantity: take, Price: line.Price}
		if err := tx.QueryRow(ctx, `
			INSERT INTO sale_items (sale_id, medicine_id, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, saleID, line.MedicineID, take, line.Price).Scan(&item.ID); err != nil {
			return nil, mapPgError("insert sale item", err)
		}
		items = append(items, item)
		remaining -= take
	}

	if remaining > 0 {
		return nil, &InsufficientStockError{
			MedicineID: line.MedicineID,
			Requested:  line.Quantity,
			Available:  line.Quantity - remaining,
		}
	}
	return items, nil
}

func (s *saleEngine) GetSale(ctx context.Context, saleID int) (*Sale, error) {
	sale := &Sale{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, prescription_id, sale_date, total_amount FROM sales WHERE id = $1", saleID,
	).Scan(&sale.ID, &sale.PrescriptionID, &sale.SaleDate, &sale.TotalAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "sale", ID: saleID}
	}
	if err != nil {
		return nil, mapPgError("get sale", err)
	}

	rows, err := s.pool.Query(ctx,
		"SELECT id, sale_id, medicine_id, quantity, price FROM sale_items WHERE sale_id = $1 ORDER BY id", saleID,
	)
	if err != nil {
		return nil, mapPgError("fetch sale items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.MedicineID, &it.Quantity, &it.Price); err != nil {
			return nil, mapPgError("scan sale item", err)
		}
		sale.Items = append(sale.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("iterate sale items", err)
	}
	return sale, nil
}
