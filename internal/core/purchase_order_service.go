package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const purchaseOrderStatusCreated = "CREATED"

type purchaseOrderService struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPurchaseOrderService constructs a PurchaseOrderService backed by PostgreSQL.
func NewPurchaseOrderService(pool *pgxpool.Pool, lockTimeout time.Duration) PurchaseOrderService {
	return &purchaseOrderService{pool: pool, lockTimeout: lockTimeout}
}

func (s *purchaseOrderService) CreatePurchaseOrder(ctx context.Context, supplierID int, items []PurchaseOrderItemInput) (*PurchaseOrder, error) {
	if supplierID <= 0 {
		return nil, &ValidationError{Field: "supplier_id", Reason: "must be a positive id"}
	}
	for i, it := range items {
		if it.MedicineID <= 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].medicine_id", i), Reason: "must be a positive id"}
		}
		if it.Quantity <= 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		}
		if it.UnitPrice.IsNegative() {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].unit_price", i), Reason: "must not be negative"}
		}
	}

	tx, err := beginWriteTx(ctx, s.pool, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	po := &PurchaseOrder{SupplierID: supplierID, Status: purchaseOrderStatusCreated}
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (supplier_id, order_date, status)
		VALUES ($1, CURRENT_DATE, $2)
		RETURNING id, order_date::text, created_at
	`, supplierID, purchaseOrderStatusCreated).Scan(&po.ID, &po.OrderDate, &po.CreatedAt); err != nil {
		return nil, mapPgError("insert purchase order", err)
	}

	for i, it := range items {
		item := PurchaseOrderItem{OrderID: po.ID, MedicineID: it.MedicineID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		if err := tx.QueryRow(ctx, `
			INSERT INTO purchase_order_items (order_id, medicine_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, po.ID, it.MedicineID, it.Quantity, it.UnitPrice).Scan(&item.ID); err != nil {
			return nil, mapPgError(fmt.Sprintf("insert purchase order item %d", i+1), err)
		}
		po.Items = append(po.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError("commit purchase order", err)
	}
	return s.GetPurchaseOrder(ctx, po.ID)
}

func (s *purchaseOrderService) GetPurchaseOrder(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	err := s.pool.QueryRow(ctx, `
		SELECT po.id, po.supplier_id, sp.name, po.order_date::text, po.status, po.created_at
		FROM purchase_orders po
		JOIN suppliers sp ON sp.id = po.supplier_id
		WHERE po.id = $1
	`, orderID).Scan(&po.ID, &po.SupplierID, &po.SupplierName, &po.OrderDate, &po.Status, &po.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "purchase order", ID: orderID}
	}
	if err != nil {
		return nil, mapPgError("get purchase order", err)
	}

	items, err := s.fetchItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return po, nil
}

func (s *purchaseOrderService) ListPurchaseOrders(ctx context.Context) ([]PurchaseOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT po.id, po.supplier_id, sp.name, po.order_date::text, po.status, po.created_at
		FROM purchase_orders po
		JOIN suppliers sp ON sp.id = po.supplier_id
		ORDER BY po.created_at DESC
	`)
	if err != nil {
		return nil, mapPgError("list purchase orders", err)
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.SupplierID, &po.SupplierName, &po.OrderDate, &po.Status, &po.CreatedAt); err != nil {
			return nil, mapPgError("scan purchase order", err)
		}
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("iterate purchase orders", err)
	}
	return orders, nil
}

func (s *purchaseOrderService) fetchItems(ctx context.Context, orderID int) ([]PurchaseOrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, medicine_id, quantity, unit_price
		FROM purchase_order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, mapPgError("fetch purchase order items", err)
	}
	defer rows.Close()

	var items []PurchaseOrderItem
	for rows.Next() {
		var it PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MedicineID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, mapPgError("scan purchase order item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("iterate purchase order items", err)
	}
	return items, nil
}
