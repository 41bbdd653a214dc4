// Package models содержит доменные структуры спортзала: тарифы, записи на
// абонемент, платежи, посещения, участников и тренировочные планы, а также
// Dummy*-структуры для приёма данных из JSON-запросов до их проверки.
package models

import "github.com/shopspring/decimal"

// PlanStatus — флаг доступности тарифа для новых записей.
type PlanStatus string

const (
	// PlanActive — по тарифу можно оформлять новые записи.
	PlanActive PlanStatus = "ACTIVE"
	// PlanInactive — тариф снят с продажи.
	PlanInactive PlanStatus = "INACTIVE"
)

// Plan описывает тариф абонемента.
type Plan struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	DurationMonths int             `json:"duration_months"`
	Status         PlanStatus      `json:"status"`
}

// IsActive сообщает, можно ли оформить новую запись по тарифу.
func (p Plan) IsActive() bool {
	return p.Status == PlanActive
}

// DummyPlan используется для приёма тарифа из JSON-запроса.
// Status необязателен: при создании по умолчанию используется ACTIVE.
type DummyPlan struct {
	Name           string          `json:"name" validate:"required,max=100"`
	Description    string          `json:"description,omitempty" validate:"max=500"`
	Price          decimal.Decimal `json:"price"`
	DurationMonths int             `json:"duration_months" validate:"required,gte=1"`
	Status         string          `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}
