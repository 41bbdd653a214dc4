package models

import "time"

// Типы доменных событий, публикуемых в RabbitMQ.
const (
	EventEnrollmentCreated     = "enrollment.created"
	EventEnrollmentCanceled    = "enrollment.canceled"
	EventEnrollmentActivated   = "enrollment.activated"
	EventEnrollmentDeactivated = "enrollment.deactivated"
	EventEnrollmentRenewed     = "enrollment.renewed"
	EventPaymentRegistered     = "payment.registered"
	EventAttendanceRegistered  = "attendance.registered"
)

// Event — конверт доменного события.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// EnrollmentExpiring — уведомление об окончании записи, которое планировщик
// отправляет в очередь, а сервис рассылки превращает в письмо.
type EnrollmentExpiring struct {
	EnrollmentID int64     `json:"enrollment_id"`
	MemberName   string    `json:"member_name"`
	Email        string    `json:"email"`
	PlanName     string    `json:"plan_name"`
	EndDate      time.Time `json:"end_date"`
}
