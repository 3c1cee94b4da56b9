package app

import (
	"fmt"
	"time"

	"pharmacy-backend/internal/core"

	"github.com/shopspring/decimal"
)

// Every request type enumerates its recognized fields explicitly and is
// validated before any write begins. Unknown JSON fields are rejected at the
// transport boundary; required-but-absent fields are rejected here.

// CreateMedicineRequest is the input for adding a catalog entry.
type CreateMedicineRequest struct {
	Code                 string `json:"code"`
	Name                 string `json:"name"`
	Category             string `json:"category"`
	Manufacturer         string `json:"manufacturer"`
	DosageForm           string `json:"dosage_form"`
	Strength             string `json:"strength"`
	PrescriptionRequired bool   `json:"prescription_required"`
}

func (r CreateMedicineRequest) Validate() error {
	if r.Code == "" {
		return &core.ValidationError{Field: "code", Reason: "is required"}
	}
	if r.Name == "" {
		return &core.ValidationError{Field: "name", Reason: "is required"}
	}
	return nil
}

// ListMedicinesRequest narrows a catalog listing; all fields are optional.
type ListMedicinesRequest struct {
	Name                 string
	Category             string
	PrescriptionRequired *bool
}

// AddBatchRequest is the input for recording a stock batch.
// ExpiryDate is optional; an absent expiry means the batch never expires and
// is consumed only after all dated stock.
type AddBatchRequest struct {
	MedicineID    int              `json:"medicine_id"`
	BatchNumber   string           `json:"batch_number"`
	ExpiryDate    string           `json:"expiry_date,omitempty"` // YYYY-MM-DD
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Quantity      *int             `json:"quantity"`
}

func (r AddBatchRequest) Validate() (core.BatchInput, error) {
	if r.MedicineID <= 0 {
		return core.BatchInput{}, &core.ValidationError{Field: "medicine_id", Reason: "must be a positive id"}
	}
	if r.BatchNumber == "" {
		return core.BatchInput{}, &core.ValidationError{Field: "batch_number", Reason: "is required"}
	}
	if r.Quantity == nil {
		return core.BatchInput{}, &core.ValidationError{Field: "quantity", Reason: "is required"}
	}
	if *r.Quantity < 0 {
		return core.BatchInput{}, &core.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	input := core.BatchInput{
		MedicineID:  r.MedicineID,
		BatchNumber: r.BatchNumber,
		Quantity:    *r.Quantity,
	}
	if r.PurchasePrice != nil {
		input.PurchasePrice = *r.PurchasePrice
	}
	if r.SellingPrice != nil {
		input.SellingPrice = *r.SellingPrice
	}
	if r.ExpiryDate != "" {
		d, err := time.Parse("2006-01-02", r.ExpiryDate)
		if err != nil {
			return core.BatchInput{}, &core.ValidationError{Field: "expiry_date", Reason: "must be YYYY-MM-DD"}
		}
		input.ExpiryDate = &d
	}
	return input, nil
}

// CreatePurchaseOrderRequest is the input for creating a purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID int                      `json:"supplier_id"`
	Items      []PurchaseOrderItemInput `json:"items"`
}

// PurchaseOrderItemInput is a single line within a CreatePurchaseOrderRequest.
type PurchaseOrderItemInput struct {
	MedicineID int              `json:"medicine_id"`
	Quantity   *int             `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
}

func (r CreatePurchaseOrderRequest) Validate() ([]core.PurchaseOrderItemInput, error) {
	if r.SupplierID <= 0 {
		return nil, &core.ValidationError{Field: "supplier_id", Reason: "must be a positive id"}
	}
	items := make([]core.PurchaseOrderItemInput, len(r.Items))
	for i, it := range r.Items {
		if it.MedicineID <= 0 {
			return nil, &core.ValidationError{Field: fmt.Sprintf("items[%d].medicine_id", i), Reason: "must be a positive id"}
		}
		if it.Quantity == nil {
			return nil, &core.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "is required"}
		}
		if *it.Quantity <= 0 {
			return nil, &core.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		}
		items[i] = core.PurchaseOrderItemInput{MedicineID: it.MedicineID, Quantity: *it.Quantity}
		if it.UnitPrice != nil {
			items[i].UnitPrice = *it.UnitPrice
		}
	}
	return items, nil
}

// CreatePrescriptionRequest is the input for creating a prescription.
type CreatePrescriptionRequest struct {
	PatientID int                     `json:"patient_id"`
	DoctorID  int                     `json:"doctor_id"`
	Items     []PrescriptionItemInput `json:"items"`
}

// PrescriptionItemInput is a single line within a CreatePrescriptionRequest.
type PrescriptionItemInput struct {
	MedicineID   int    `json:"medicine_id"`
	Dosage       string `json:"dosage"`
	DurationDays int    `json:"duration_days"`
}

func (r CreatePrescriptionRequest) Validate() ([]core.PrescriptionItemInput, error) {
	if r.PatientID <= 0 {
		return nil, &core.ValidationError{Field: "patient_id", Reason: "must be a positive id"}
	}
	if r.DoctorID <= 0 {
		return nil, &core.ValidationError{Field: "doctor_id", Reason: "must be a positive id"}
	}
	items := make([]core.PrescriptionItemInput, len(r.Items))
	for i, it := range r.Items {
		if it.MedicineID <= 0 {
			return nil, &core.ValidationError{Field: fmt.Sprintf("items[%d].medicine_id", i), Reason: "must be a positive id"}
		}
		items[i] = core.PrescriptionItemInput{MedicineID: it.MedicineID, Dosage: it.Dosage, DurationDays: it.DurationDays}
	}
	return items, nil
}

// ProcessSaleRequest is the input for a point-of-sale transaction.
// Price is required on every line: an absent price is rejected rather than
// silently treated as zero.
type ProcessSaleRequest struct {
	PrescriptionID *int            `json:"prescription_id,omitempty"`
	Items          []SaleLineInput `json:"items"`
}

// SaleLineInput is a single line within a ProcessSaleRequest.
type SaleLineInput struct {
	MedicineID int              `json:"medicine_id"`
	Quantity   *int             `json:"quantity"`
	Price      *decimal.Decimal `json:"price"`
}

func (r ProcessSaleRequest) Validate() (core.SaleRequest, error) {
	if len(r.Items) == 0 {
		return core.SaleRequest{}, &core.ValidationError{Field: "items", Reason: "at least one sale item is required"}
	}
	out := core.SaleRequest{PrescriptionID: r.PrescriptionID}
	out.Items = make([]core.SaleLineInput, len(r.Items))
	for i, it := range r.Items {
		if it.MedicineID <= 0 {
			return core.SaleRequest{}, &core.ValidationError{Field: fmt.Sprintf("items[%d].medicine_id", i), Reason: "must be a positive id"}
		}
		if it.Quantity == nil {
			return core.SaleRequest{}, &core.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "is required"}
		}
		if *it.Quantity <= 0 {
			return core.SaleRequest{}, &core.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		}
		if it.Price == nil {
			return core.SaleRequest{}, &core.ValidationError{Field: fmt.Sprintf("items[%d].price", i), Reason: "is required"}
		}
		if it.Price.IsNegative() {
			return core.SaleRequest{}, &core.ValidationError{Field: fmt.Sprintf("items[%d].price", i), Reason: "must not be negative"}
		}
		out.Items[i] = core.SaleLineInput{MedicineID: it.MedicineID, Quantity: *it.Quantity, Price: *it.Price}
	}
	return out, nil
}

// SuggestReorderRequest is the input for the AI restock suggestion.
type SuggestReorderRequest struct {
	Threshold int `json:"threshold"` // suggest lines for stock at or below this; defaults to 10
}
