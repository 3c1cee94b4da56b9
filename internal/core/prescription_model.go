package core

import (
	"context"
	"time"
)

// Prescription is a doctor's prescription header for a patient.
type Prescription struct {
	ID               int                `json:"id"`
	PatientID        int                `json:"patient_id"`
	DoctorID         int                `json:"doctor_id"`
	PrescriptionDate string             `json:"prescription_date"` // YYYY-MM-DD
	CreatedAt        time.Time          `json:"created_at"`
	Items            []PrescriptionItem `json:"items"`
}

// PrescriptionItem is a single prescribed medicine with dosage instructions.
type PrescriptionItem struct {
	ID             int    `json:"id"`
	PrescriptionID int    `json:"prescription_id"`
	MedicineID     int    `json:"medicine_id"`
	Dosage         string `json:"dosage"`
	DurationDays   int    `json:"duration_days"`
}

// PrescriptionItemInput holds the fields required to create a prescription line.
type PrescriptionItemInput struct {
	MedicineID   int
	Dosage       string
	DurationDays int
}

// PrescriptionService creates and reads prescriptions. Creation follows the
// same atomic header-plus-items pattern as purchase orders.
type PrescriptionService interface {
	CreatePrescription(ctx context.Context, patientID, doctorID int, items []PrescriptionItemInput) (*Prescription, error)
	GetPrescription(ctx context.Context, prescriptionID int) (*Prescription, error)
}
