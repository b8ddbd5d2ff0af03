package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tradeforge/propdesk/internal/models"
)

// TestDB wraps a test database connection with cleanup
type TestDB struct {
	*DB
	container testcontainers.Container
	connStr   string
}

// SetupTestDB creates a new PostgreSQL container and returns a connected DB
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := New(connStr)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	testDB := &TestDB{
		DB:        db,
		container: pgContainer,
		connStr:   connStr,
	}

	// Get the migrations path relative to this file
	_, filename, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(filename), "..", "..", "db", "migrations")

	if err := db.EnsureSchema(migrationsPath); err != nil {
		testDB.Cleanup(t)
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup closes the database connection and terminates the container
func (tdb *TestDB) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if tdb.DB != nil {
		tdb.DB.Close()
	}

	if tdb.container != nil {
		if err := tdb.container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}
}

// TruncateAll truncates all tables for test isolation
func (tdb *TestDB) TruncateAll(t *testing.T) {
	t.Helper()

	tables := []string{
		"daily_trade_summaries",
		"trades",
		"market_data",
		"challenges",
		"challenge_plans",
	}

	for _, table := range tables {
		_, err := tdb.conn.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Fatalf("failed to truncate table %s: %v", table, err)
		}
	}
}

// CreateTestPlan inserts a plan row for tests that need one
func (tdb *TestDB) CreateTestPlan(t *testing.T, name string, accountSize int64, active bool) *models.ChallengePlan {
	t.Helper()

	plan := &models.ChallengePlan{
		Name:            name,
		AccountSize:     decimal.NewFromInt(accountSize),
		ProfitTargetPct: decimal.NewFromInt(8),
		MaxLossPct:      decimal.NewFromInt(10),
		DailyLossPct:    decimal.NewFromInt(5),
		DurationDays:    30,
		Fee:             decimal.NewFromInt(999),
		ProfitSplit:     decimal.NewFromInt(80),
		Level:           1,
		IsActive:        active,
	}

	err := tdb.conn.QueryRow(`
		INSERT INTO challenge_plans (
			name, account_size, profit_target_pct, max_loss_pct, daily_loss_pct,
			duration_days, fee, profit_split, level, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, plan.Name, plan.AccountSize, plan.ProfitTargetPct, plan.MaxLossPct, plan.DailyLossPct,
		plan.DurationDays, plan.Fee, plan.ProfitSplit, plan.Level, plan.IsActive,
	).Scan(&plan.ID, &plan.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create test plan: %v", err)
	}

	return plan
}

// GetRawConn returns the underlying sql.DB for direct queries in tests
func (tdb *TestDB) GetRawConn() *sql.DB {
	return tdb.conn
}

// ConnectionString returns the database connection string
func (tdb *TestDB) ConnectionString() string {
	return tdb.connStr
}
