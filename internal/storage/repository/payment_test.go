package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

func TestStorage_Payments(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	factory := newTestDataFactory(storage)
	memberID := factory.createMember(t, "Ann", "")
	planID := factory.createPlan(t, "Monthly", "100", 1)
	enrollmentID := factory.createEnrollment(t, memberID, planID, date(2025, 1, 10), date(2025, 2, 10), models.EnrollmentActive)

	total, err := storage.SumPayments(ctx, enrollmentID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = storage.CreatePayment(ctx, models.Payment{
		EnrollmentID: enrollmentID,
		PaymentDate:  date(2025, 1, 10),
		Amount:       decimal.RequireFromString("60.50"),
		Method:       "card",
	})
	require.NoError(t, err)
	lastID := factory.createPayment(t, enrollmentID, date(2025, 1, 20), "39.50")

	total, err = storage.SumPayments(ctx, enrollmentID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(total), "got %s", total)

	byMember, err := storage.ListPayments(ctx, models.PaymentFilter{MemberID: memberID})
	require.NoError(t, err)
	require.Len(t, byMember, 2)
	assert.Equal(t, lastID, byMember[0].ID, "newest first")

	from, to := date(2025, 1, 1), date(2025, 1, 15)
	byPeriod, err := storage.ListPayments(ctx, models.PaymentFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, byPeriod, 1)
	assert.Equal(t, "card", byPeriod[0].Method)

	require.NoError(t, storage.DeletePayment(ctx, lastID))
	total, err = storage.SumPayments(ctx, enrollmentID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("60.5").Equal(total))
}
