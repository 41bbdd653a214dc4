package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/gym-membership/internal/migrations"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// testDataFactory создаёт тестовые данные напрямую через SQL.
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(storage *Storage) *testDataFactory {
	return &testDataFactory{storage: storage}
}

func (f *testDataFactory) createMember(t *testing.T, name, email string) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO members (name, email, joined_at)
		VALUES ($1, NULLIF($2, ''), '2024-12-01') RETURNING id`, name, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *testDataFactory) createPlan(t *testing.T, name string, price string, months int) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO plans (name, price, duration_months)
		VALUES ($1, $2, $3) RETURNING id`, name, decimal.RequireFromString(price), months).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *testDataFactory) createEnrollment(t *testing.T, memberID, planID int64, start, end time.Time,
	status models.EnrollmentStatus) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO enrollments (member_id, plan_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`, memberID, planID, start, end, status).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *testDataFactory) createPayment(t *testing.T, enrollmentID int64, date time.Time, amount string) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO payments (enrollment_id, payment_date, amount)
		VALUES ($1, $2, $3) RETURNING id`, enrollmentID, date, decimal.RequireFromString(amount)).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *testDataFactory) createTrainingPlan(t *testing.T, memberID int64, created time.Time, weeks *int) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO training_plans (member_id, instructor_name, created_at, duration_weeks)
		VALUES ($1, 'Coach', $2, $3) RETURNING id`, memberID, created, weeks).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *testDataFactory) createExercise(t *testing.T, planID int64, name string, load *float64) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO exercises (training_plan_id, name, sets, reps, load)
		VALUES ($1, $2, 3, 10, $3)`, planID, name, load)
	require.NoError(t, err)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("gym"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, connStr)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	cleanup := func() {
		_ = storage.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return storage, cleanup
}
