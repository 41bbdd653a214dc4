package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment — платёж по записи на абонемент. После создания не меняет запись:
// признак «оплачено» каждый раз пересчитывается по сумме платежей.
type Payment struct {
	ID           int64           `json:"id"`
	EnrollmentID int64           `json:"enrollment_id"`
	PaymentDate  time.Time       `json:"payment_date"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method,omitempty"`
}

// DummyPayment используется для приёма платежа из JSON-запроса.
// Method необязателен, но если передан, не может быть пустым.
type DummyPayment struct {
	EnrollmentID int64           `json:"enrollment_id" validate:"required"`
	PaymentDate  string          `json:"payment_date" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Method       *string         `json:"method,omitempty" validate:"omitempty,max=50"`
}

// PaymentFilter задаёт выборку платежей. Нулевые поля не участвуют в фильтре.
type PaymentFilter struct {
	EnrollmentID int64
	MemberID     int64
	From         *time.Time
	To           *time.Time
}

// PaymentSummary — итог оплаты записи, вычисляемый при каждом запросе.
type PaymentSummary struct {
	EnrollmentID int64           `json:"enrollment_id"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	PlanPrice    decimal.Decimal `json:"plan_price"`
	PaidUp       bool            `json:"paid_up"`
}
