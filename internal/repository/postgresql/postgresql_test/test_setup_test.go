package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
)

// TestDatabaseSetup holds a connection to a disposable test database.
type TestDatabaseSetup struct {
	DB *database.DB
}

var migrationsDir = filepath.Join("..", "..", "..", "..", "migrations")

// NewTestDatabase connects to TEST_DATABASE_URL and rebuilds the schema.
// Tests are skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 10, MinConns: 1})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(db.Close)

	setup := &TestDatabaseSetup{DB: db}
	for _, name := range []string{"000001_init_leave.down.sql", "000001_init_leave.up.sql"} {
		if err := setup.exec(ctx, filepath.Join(migrationsDir, name)); err != nil {
			t.Fatalf("failed to apply %s: %v", name, err)
		}
	}
	return setup
}

func (s *TestDatabaseSetup) exec(ctx context.Context, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// No arguments: pgx sends the script over the simple protocol.
	if _, err := s.DB.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("exec %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SeedLeaveType inserts a leave type and returns its id.
func (s *TestDatabaseSetup) SeedLeaveType(t *testing.T, name string) int64 {
	t.Helper()
	var id int64
	err := s.DB.QueryRow(context.Background(),
		`INSERT INTO leave_types (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		t.Fatalf("seed leave type: %v", err)
	}
	return id
}

// SeedEmployee inserts an employee and returns its id.
func (s *TestDatabaseSetup) SeedEmployee(t *testing.T, firstName, employmentType, status, hireDate string) int64 {
	t.Helper()
	var id int64
	err := s.DB.QueryRow(context.Background(), `
		INSERT INTO employees (first_name, last_name, employment_type, employment_status, hire_date)
		VALUES ($1, 'Test', $2, $3, $4::date)
		RETURNING id
	`, firstName, employmentType, status, hireDate).Scan(&id)
	if err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return id
}
