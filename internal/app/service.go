package app

import (
	"context"

	"pharmacy-backend/internal/ai"
	"pharmacy-backend/internal/core"
)

// ApplicationService is the single interface transport adapters call. It
// decouples presentation from business logic: implementations contain no
// display or transport concerns of any kind.
type ApplicationService interface {
	// CreateMedicine adds a medicine to the catalog.
	CreateMedicine(ctx context.Context, req CreateMedicineRequest) (*core.Medicine, error)

	// ListMedicines returns catalog entries matching the filter.
	ListMedicines(ctx context.Context, req ListMedicinesRequest) (*MedicineListResult, error)

	// AddBatch records a new stock batch for a medicine.
	AddBatch(ctx context.Context, req AddBatchRequest) (*core.Batch, error)

	// ListBatches returns a medicine's batches in allocation order.
	ListBatches(ctx context.Context, medicineID int) (*BatchListResult, error)

	// GetInventoryStatus returns the per-medicine stock-total view.
	GetInventoryStatus(ctx context.Context) (*InventoryStatusResult, error)

	// CreatePurchaseOrder atomically creates an order header with its items.
	CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*core.PurchaseOrder, error)

	// ListPurchaseOrders returns all purchase orders, newest first.
	ListPurchaseOrders(ctx context.Context) (*PurchaseOrderListResult, error)

	// GetPurchaseOrder returns one purchase order with its items.
	GetPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error)

	// CreatePrescription atomically creates a prescription with its items.
	CreatePrescription(ctx context.Context, req CreatePrescriptionRequest) (*core.Prescription, error)

	// GetPrescription returns one prescription with its items.
	GetPrescription(ctx context.Context, prescriptionID int) (*core.Prescription, error)

	// ProcessSale allocates stock for every requested line and records the
	// sale, all-or-nothing.
	ProcessSale(ctx context.Context, req ProcessSaleRequest) (*core.Sale, error)

	// GetSale returns a committed sale with its items.
	GetSale(ctx context.Context, saleID int) (*core.Sale, error)

	// SuggestReorder asks the AI agent for restock suggestions based on
	// current stock totals. Requires an OpenAI API key at startup.
	SuggestReorder(ctx context.Context, req SuggestReorderRequest) (*ai.ReorderProposal, error)
}
