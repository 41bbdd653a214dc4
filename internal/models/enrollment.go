package models

import (
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
)

// EnrollmentStatus — состояние записи на абонемент.
type EnrollmentStatus string

const (
	// EnrollmentActive — запись действует.
	EnrollmentActive EnrollmentStatus = "ACTIVE"
	// EnrollmentInactive — запись приостановлена.
	EnrollmentInactive EnrollmentStatus = "INACTIVE"
	// EnrollmentPending объявлен в схеме, но ни одна операция его не выставляет.
	EnrollmentPending EnrollmentStatus = "PENDING"
	// EnrollmentCanceled — запись отменена, статус конечный.
	EnrollmentCanceled EnrollmentStatus = "CANCELED"
)

// Enrollment — период абонемента участника по одному тарифу.
// EndDate всегда выводится из StartDate и длительности тарифа при создании и продлении.
type Enrollment struct {
	ID        int64            `json:"id"`
	MemberID  int64            `json:"member_id"`
	PlanID    int64            `json:"plan_id"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Status    EnrollmentStatus `json:"status"`
}

// IsExpired сообщает, прошла ли дата окончания относительно today.
// Истечение не хранится, а вычисляется при каждом обращении.
func (e Enrollment) IsExpired(today time.Time) bool {
	return e.EndDate.Before(month.Day(today))
}

// IsCurrent сообщает, что запись активна и today попадает в её период.
func (e Enrollment) IsCurrent(today time.Time) bool {
	day := month.Day(today)
	return e.Status == EnrollmentActive && !e.StartDate.After(day) && !e.EndDate.Before(day)
}

// DummyEnrollment используется для приёма записи из JSON-запроса.
// Даты приходят строками в формате 2006-01-02. EndDate учитывается только при обновлении.
type DummyEnrollment struct {
	MemberID  int64  `json:"member_id" validate:"required"`
	PlanID    int64  `json:"plan_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date,omitempty"`
}

// EnrollmentFilter задаёт выборку записей. Нулевые поля не участвуют в фильтре.
type EnrollmentFilter struct {
	MemberID int64
	PlanID   int64
	Status   EnrollmentStatus
}
