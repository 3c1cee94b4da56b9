package app

import (
	"context"
	"errors"

	"pharmacy-backend/internal/ai"
	"pharmacy-backend/internal/core"
)

type appService struct {
	catalog       core.CatalogService
	inventory     core.InventoryService
	sales         core.SaleEngine
	orders        core.PurchaseOrderService
	prescriptions core.PrescriptionService
	agent         *ai.Agent // nil when no API key is configured
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil; SuggestReorder then fails with a plain error.
func NewAppService(
	catalog core.CatalogService,
	inventory core.InventoryService,
	sales core.SaleEngine,
	orders core.PurchaseOrderService,
	prescriptions core.PrescriptionService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		catalog:       catalog,
		inventory:     inventory,
		sales:         sales,
		orders:        orders,
		prescriptions: prescriptions,
		agent:         agent,
	}
}

func (s *appService) CreateMedicine(ctx context.Context, req CreateMedicineRequest) (*core.Medicine, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.catalog.CreateMedicine(ctx, core.MedicineInput{
		Code:                 req.Code,
		Name:                 req.Name,
		Category:             req.Category,
		Manufacturer:         req.Manufacturer,
		DosageForm:           req.DosageForm,
		Strength:             req.Strength,
		PrescriptionRequired: req.PrescriptionRequired,
	})
}

func (s *appService) ListMedicines(ctx context.Context, req ListMedicinesRequest) (*MedicineListResult, error) {
	medicines, err := s.catalog.ListMedicines(ctx, core.MedicineFilter{
		Name:                 req.Name,
		Category:             req.Category,
		PrescriptionRequired: req.PrescriptionRequired,
	})
	if err != nil {
		return nil, err
	}
	return &MedicineListResult{Medicines: medicines}, nil
}

func (s *appService) AddBatch(ctx context.Context, req AddBatchRequest) (*core.Batch, error) {
	input, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return s.inventory.AddBatch(ctx, input)
}

func (s *appService) ListBatches(ctx context.Context, medicineID int) (*BatchListResult, error) {
	batches, err := s.inventory.ListBatches(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	return &BatchListResult{Batches: batches}, nil
}

func (s *appService) GetInventoryStatus(ctx context.Context) (*InventoryStatusResult, error) {
	items, err := s.inventory.GetInventoryStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &InventoryStatusResult{Items: items}, nil
}

func (s *appService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*core.PurchaseOrder, error) {
	items, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return s.orders.CreatePurchaseOrder(ctx, req.SupplierID, items)
}

func (s *appService) ListPurchaseOrders(ctx context.Context) (*PurchaseOrderListResult, error) {
	orders, err := s.orders.ListPurchaseOrders(ctx)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderListResult{Orders: orders}, nil
}

func (s *appService) GetPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error) {
	return s.orders.GetPurchaseOrder(ctx, orderID)
}

func (s *appService) CreatePrescription(ctx context.Context, req CreatePrescriptionRequest) (*core.Prescription, error) {
	items, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return s.prescriptions.CreatePrescription(ctx, req.PatientID, req.DoctorID, items)
}

func (s *appService) GetPrescription(ctx context.Context, prescriptionID int) (*core.Prescription, error) {
	return s.prescriptions.GetPrescription(ctx, prescriptionID)
}

func (s *appService) ProcessSale(ctx context.Context, req ProcessSaleRequest) (*core.Sale, error) {
	saleReq, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return s.sales.ProcessSale(ctx, saleReq)
}

func (s *appService) GetSale(ctx context.Context, saleID int) (*core.Sale, error) {
	return s.sales.GetSale(ctx, saleID)
}

// ErrAgentUnavailable is returned by SuggestReorder when no AI agent was
// configured at startup.
var ErrAgentUnavailable = errors.New("reorder suggestions unavailable: no AI agent configured")

func (s *appService) SuggestReorder(ctx context.Context, req SuggestReorderRequest) (*ai.ReorderProposal, error) {
	if s.agent == nil {
		return nil, ErrAgentUnavailable
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 10
	}
	stock, err := s.inventory.GetInventoryStatus(ctx)
	if err != nil {
		return nil, err
	}
	return s.agent.SuggestReorder(ctx, stock, threshold)
}
