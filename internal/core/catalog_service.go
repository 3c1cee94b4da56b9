package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogService owns medicine definitions.
type CatalogService interface {
	// CreateMedicine inserts a new medicine. The code must be unique.
	CreateMedicine(ctx context.Context, input MedicineInput) (*Medicine, error)
	// ListMedicines returns medicines matching the filter, ordered by name.
	ListMedicines(ctx context.Context, filter MedicineFilter) ([]Medicine, error)
	// GetMedicine returns a medicine by id.
	GetMedicine(ctx context.Context, id int) (*Medicine, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateMedicine(ctx context.Context, input MedicineInput) (*Medicine, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if input.Code == "" {
		return nil, &ValidationError{Field: "code", Reason: "is required"}
	}
	if input.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}

	m := &Medicine{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO medicines (code, name, category, manufacturer, dosage_form, strength, prescription_required)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, code, name, category, manufacturer, dosage_form, strength, prescription_required, created_at
	`, input.Code, input.Name, input.Category, input.Manufacturer, input.DosageForm, input.Strength, input.PrescriptionRequired,
	).Scan(&m.ID, &m.Code, &m.Name, &m.Category, &m.Manufacturer, &m.DosageForm, &m.Strength, &m.PrescriptionRequired, &m.CreatedAt)
	if err != nil {
		mapped := mapPgError("insert medicine", err)
		var ve *ValidationError
		if errors.As(mapped, &ve) {
			return nil, &ValidationError{Field: "code", Reason: fmt.Sprintf("medicine code %q already exists", input.Code)}
		}
		return nil, mapped
	}
	return m, nil
}

func (s *catalogService) ListMedicines(ctx context.Context, filter MedicineFilter) ([]Medicine, error) {
	query := `
		SELECT id, code, name, category, manufacturer, dosage_form, strength, prescription_required, created_at
		FROM medicines`
	var conditions []string
	var args []any

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.PrescriptionRequired != nil {
		args = append(args, *filter.PrescriptionRequired)
		conditions = append(conditions, fmt.Sprintf("prescription_required = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError("list medicines", err)
	}
	defer rows.Close()

	var medicines []Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Category, &m.Manufacturer,
			&m.DosageForm, &m.Strength, &m.PrescriptionRequired, &m.CreatedAt); err != nil {
			return nil, mapPgError("scan medicine", err)
		}
		medicines = append(medicines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("iterate medicines", err)
	}
	return medicines, nil
}

func (s *catalogService) GetMedicine(ctx context.Context, id int) (*Medicine, error) {
	m := &Medicine{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, name, category, manufacturer, dosage_form, strength, prescription_required, created_at
		FROM medicines WHERE id = $1
	`, id).Scan(&m.ID, &m.Code, &m.Name, &m.Category, &m.Manufacturer,
		&m.DosageForm, &m.Strength, &m.PrescriptionRequired, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "medicine", ID: id}
	}
	if err != nil {
		return nil, mapPgError("get medicine", err)
	}
	return m, nil
}
