package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a point-of-sale transaction header. TotalAmount equals the sum of
// price × quantity over all of its items.
type Sale struct {
	ID             int             `json:"id"`
	PrescriptionID *int            `json:"prescription_id,omitempty"`
	SaleDate       time.Time       `json:"sale_date"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Items          []SaleItem      `json:"items"`
}

// SaleItem records one allocation fragment: a quantity taken from a single
// batch at the line's price. A sale line that spans multiple batches produces
// one item per batch touched.
type SaleItem struct {
	ID         int             `json:"id"`
	SaleID     int             `json:"sale_id"`
	MedicineID int             `json:"medicine_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// SaleLineInput is one requested line of a sale. Price is the per-unit selling
// price for the whole line; it is required, never defaulted.
type SaleLineInput struct {
	MedicineID int
	Quantity   int
	Price      decimal.Decimal
}

// SaleRequest is the input to ProcessSale.
type SaleRequest struct {
	PrescriptionID *int
	Items          []SaleLineInput
}
