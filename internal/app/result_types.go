package app

import "pharmacy-backend/internal/core"

// MedicineListResult wraps a catalog listing.
type MedicineListResult struct {
	Medicines []core.Medicine `json:"medicines"`
}

// BatchListResult wraps a medicine's batches in allocation order.
type BatchListResult struct {
	Batches []core.Batch `json:"batches"`
}

// InventoryStatusResult wraps the per-medicine stock-total view.
type InventoryStatusResult struct {
	Items []core.StockSummary `json:"items"`
}

// PurchaseOrderListResult wraps a purchase order listing.
type PurchaseOrderListResult struct {
	Orders []core.PurchaseOrder `json:"orders"`
}
