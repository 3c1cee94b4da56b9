package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is a restocking order header. Status is set at creation;
// the core performs no status transitions.
type PurchaseOrder struct {
	ID           int                 `json:"id"`
	SupplierID   int                 `json:"supplier_id"`
	SupplierName string              `json:"supplier_name"`
	OrderDate    string              `json:"order_date"` // YYYY-MM-DD
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	Items        []PurchaseOrderItem `json:"items"`
}

// PurchaseOrderItem is a single line on a purchase order.
type PurchaseOrderItem struct {
	ID         int             `json:"id"`
	OrderID    int             `json:"order_id"`
	MedicineID int             `json:"medicine_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// PurchaseOrderItemInput holds the fields required to create an order line.
type PurchaseOrderItemInput struct {
	MedicineID int
	Quantity   int
	UnitPrice  decimal.Decimal
}

// PurchaseOrderService creates and reads purchase orders. Creation is atomic:
// the header and every item land together or not at all.
type PurchaseOrderService interface {
	CreatePurchaseOrder(ctx context.Context, supplierID int, items []PurchaseOrderItemInput) (*PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, orderID int) (*PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context) ([]PurchaseOrder, error)
}
