package core

import "time"

// Medicine is a catalog entry. It is immutable once a batch references it.
type Medicine struct {
	ID                   int       `json:"id"`
	Code                 string    `json:"code"`
	Name                 string    `json:"name"`
	Category             string    `json:"category"`
	Manufacturer         string    `json:"manufacturer"`
	DosageForm           string    `json:"dosage_form"`
	Strength             string    `json:"strength"`
	PrescriptionRequired bool      `json:"prescription_required"`
	CreatedAt            time.Time `json:"created_at"`
}

// MedicineInput holds the fields required to create a medicine.
type MedicineInput struct {
	Code                 string
	Name                 string
	Category             string
	Manufacturer         string
	DosageForm           string
	Strength             string
	PrescriptionRequired bool
}

// MedicineFilter narrows a catalog listing. Zero values mean "no filter".
type MedicineFilter struct {
	Name                 string // case-insensitive substring match
	Category             string // exact match
	PrescriptionRequired *bool
}

type Supplier struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type Patient struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type Doctor struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	RegistrationNo string    `json:"registration_no"`
	CreatedAt      time.Time `json:"created_at"`
}
