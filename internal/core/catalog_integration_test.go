package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"pharmacy-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB. RESTART IDENTITY keeps seeded ids deterministic:
	// medicines 1..3, supplier 1, patient 1, doctor 1.
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE sale_items, sales, prescription_items, prescriptions,
			purchase_order_items, purchase_orders, medicine_batches, medicines,
			doctors, patients, suppliers RESTART IDENTITY CASCADE;

		INSERT INTO suppliers (name, phone, email) VALUES
			('MediSupply Co', '555-0100', 'orders@medisupply.test');

		INSERT INTO patients (name, phone) VALUES ('Alex Rivera', '555-0200');

		INSERT INTO doctors (name, registration_no) VALUES ('Dr. Chen', 'REG-1001');

		INSERT INTO medicines (code, name, category, manufacturer, dosage_form, strength, prescription_required) VALUES
			('PARA500', 'Paracetamol', 'Analgesic',  'Acme Pharma', 'tablet', '500mg', false),
			('AMOX250', 'Amoxicillin', 'Antibiotic', 'Acme Pharma', 'capsule', '250mg', true),
			('IBU400',  'Ibuprofen',   'Analgesic',  'Beta Labs',   'tablet', '400mg', false);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func TestCatalog_CreateMedicine(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	m, err := catalog.CreateMedicine(ctx, core.MedicineInput{
		Code:     "CET10",
		Name:     "Cetirizine",
		Category: "Antihistamine",
		Strength: "10mg",
	})
	if err != nil {
		t.Fatalf("CreateMedicine failed: %v", err)
	}
	if m.ID == 0 {
		t.Error("Expected a generated id")
	}
	if m.Code != "CET10" || m.Name != "Cetirizine" {
		t.Errorf("Unexpected medicine returned: %+v", m)
	}

	fetched, err := catalog.GetMedicine(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMedicine failed: %v", err)
	}
	if fetched.Category != "Antihistamine" {
		t.Errorf("Expected category Antihistamine, got %q", fetched.Category)
	}
}

func TestCatalog_CreateMedicine_DuplicateCode(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	_, err := catalog.CreateMedicine(ctx, core.MedicineInput{Code: "PARA500", Name: "Paracetamol Again"})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError for duplicate code, got %v", err)
	}
	if ve.Field != "code" {
		t.Errorf("Expected field code, got %q", ve.Field)
	}
}

func TestCatalog_ListMedicines_Filters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	// Case-insensitive substring on name
	byName, err := catalog.ListMedicines(ctx, core.MedicineFilter{Name: "para"})
	if err != nil {
		t.Fatalf("ListMedicines by name failed: %v", err)
	}
	if len(byName) != 1 || byName[0].Code != "PARA500" {
		t.Errorf("Expected only PARA500 for name filter, got %+v", byName)
	}

	// Exact category match
	byCategory, err := catalog.ListMedicines(ctx, core.MedicineFilter{Category: "Analgesic"})
	if err != nil {
		t.Fatalf("ListMedicines by category failed: %v", err)
	}
	if len(byCategory) != 2 {
		t.Errorf("Expected 2 analgesics, got %d", len(byCategory))
	}

	// Combined with prescription_required
	rx := true
	byRx, err := catalog.ListMedicines(ctx, core.MedicineFilter{PrescriptionRequired: &rx})
	if err != nil {
		t.Fatalf("ListMedicines by prescription_required failed: %v", err)
	}
	if len(byRx) != 1 || byRx[0].Code != "AMOX250" {
		t.Errorf("Expected only AMOX250 to require prescription, got %+v", byRx)
	}
}

func TestCatalog_GetMedicine_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)

	_, err := catalog.GetMedicine(context.Background(), 99999)
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}
