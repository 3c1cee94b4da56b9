package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type prescriptionService struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPrescriptionService constructs a PrescriptionService backed by PostgreSQL.
func NewPrescriptionService(pool *pgxpool.Pool, lockTimeout time.Duration) PrescriptionService {
	return &prescriptionService{pool: pool, lockTimeout: lockTimeout}
}

func (s *prescriptionService) CreatePrescription(ctx context.Context, patientID, doctorID int, items []PrescriptionItemInput) (*Prescription, error) {
	if patientID <= 0 {
		return nil, &ValidationError{Field: "patient_id", Reason: "must be a positive id"}
	}
	if doctorID <= 0 {
		return nil, &ValidationError{Field: "doctor_id", Reason: "must be a positive id"}
	}
	for i, it := range items {
		if it.MedicineID <= 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].medicine_id", i), Reason: "must be a positive id"}
		}
		if it.DurationDays < 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].duration_days", i), Reason: "must not be negative"}
		}
	}

	tx, err := beginWriteTx(ctx, s.pool, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p := &Prescription{PatientID: patientID, DoctorID: doctorID}
	if err := tx.QueryRow(ctx, `
		INSERT INTO prescriptions (patient_id, doctor_id, prescription_date)
		VALUES ($1, $2, CURRENT_DATE)
		RETURNING id, prescription_date::text, created_at
	`, patientID, doctorID).Scan(&p.ID, &p.PrescriptionDate, &p.CreatedAt); err != nil {
		return nil, mapPgError("insert prescription", err)
	}

	for i, it := range items {
		item := PrescriptionItem{PrescriptionID: p.ID, MedicineID: it.MedicineID, Dosage: it.Dosage, DurationDays: it.DurationDays}
		if err := tx.QueryRow(ctx, `
			INSERT INTO prescription_items (prescription_id, medicine_id, dosage, duration_days)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, p.ID, it.MedicineID, it.Dosage, it.DurationDays).Scan(&item.ID); err != nil {
			return nil, mapPgError(fmt.Sprintf("insert prescription item %d", i+1), err)
		}
		p.Items = append(p.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError("commit prescription", err)
	}
	return p, nil
}

func (s *prescriptionService) GetPrescription(ctx context.Context, prescriptionID int) (*Prescription, error) {
	p := &Prescription{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, prescription_date::text, created_at
		FROM prescriptions WHERE id = $1
	`, prescriptionID).Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.PrescriptionDate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "prescription", ID: prescriptionID}
	}
	if err != nil {
		return nil, mapPgError("get prescription", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, prescription_id, medicine_id, dosage, duration_days
		FROM prescription_items
		WHERE prescription_id = $1
		ORDER BY id
	`, prescriptionID)
	if err != nil {
		return nil, mapPgError("fetch prescription items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it PrescriptionItem
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.MedicineID, &it.Dosage, &it.DurationDays); err != nil {
			return nil, mapPgError("scan prescription item", err)
		}
		p.Items = append(p.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("iterate prescription items", err)
	}
	return p, nil
}
