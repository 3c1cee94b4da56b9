package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a physical lot of a medicine. QuantityAvailable is mutated only by
// sale deductions and never goes below zero.
type Batch struct {
	ID                int             `json:"id"`
	MedicineID        int             `json:"medicine_id"`
	BatchNumber       string          `json:"batch_number"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"` // nil = never expires, consumed last
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	QuantityAvailable int             `json:"quantity_available"`
	CreatedAt         time.Time       `json:"created_at"`
}

// BatchInput holds the fields required to add a batch.
type BatchInput struct {
	MedicineID    int
	BatchNumber   string
	ExpiryDate    *time.Time
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	Quantity      int
}

// StockSummary is a read view of a medicine's total available quantity across
// all of its batches.
type StockSummary struct {
	MedicineID    int    `json:"medicine_id"`
	MedicineCode  string `json:"medicine_code"`
	Name          string `json:"name"`
	TotalQuantity int    `json:"total_quantity"`
}
