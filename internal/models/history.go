package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberHistory — производный снимок истории участника. Не хранится и не
// кешируется: собирается заново на каждый запрос.
type MemberHistory struct {
	Member              Member                `json:"member"`
	Period              *HistoryPeriod        `json:"period,omitempty"`
	Enrollments         []EnrollmentSummary   `json:"enrollments"`
	CurrentEnrollment   *EnrollmentSummary    `json:"current_enrollment,omitempty"`
	TrainingPlans       []TrainingPlanSummary `json:"training_plans"`
	CurrentTrainingPlan *TrainingPlanSummary  `json:"current_training_plan,omitempty"`
	Assessments         []PhysicalAssessment  `json:"assessments"`
	LatestAssessment    *PhysicalAssessment   `json:"latest_assessment,omitempty"`
	Attendance          []MonthlyAttendance   `json:"attendance"`
	CurrentMonth        MonthlyAttendance     `json:"current_month"`
	Payments            []Payment             `json:"payments"`
	LatestPayment       *Payment              `json:"latest_payment,omitempty"`
	Statistics          HistoryStatistics     `json:"statistics"`
	GeneratedAt         time.Time             `json:"generated_at"`
}

// HistoryPeriod — границы выборки истории за период.
type HistoryPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EnrollmentSummary — запись на абонемент с данными тарифа и итогами оплаты.
type EnrollmentSummary struct {
	Enrollment
	PlanName  string          `json:"plan_name"`
	PlanPrice decimal.Decimal `json:"plan_price"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	PaidUp    bool            `json:"paid_up"`
}

// TrainingPlanSummary — тренировочный план с вычисленной датой окончания.
type TrainingPlanSummary struct {
	TrainingPlan
	EndDate *time.Time `json:"end_date,omitempty"`
}

// MonthlyAttendance — сводка посещений за календарный месяц (ключ 2006-01).
type MonthlyAttendance struct {
	Month     string `json:"month"`
	Days      int    `json:"days"`
	Presences int    `json:"presences"`
	Absences  int    `json:"absences"`
}

// HistoryStatistics — производная статистика снимка истории.
type HistoryStatistics struct {
	TotalEnrollments   int     `json:"total_enrollments"`
	TotalTrainingPlans int     `json:"total_training_plans"`
	TotalAssessments   int     `json:"total_assessments"`
	TotalPresences     int     `json:"total_presences"`
	AttendanceRate     float64 `json:"attendance_rate"`
	DaysAsMember       int     `json:"days_as_member"`
}

// DummyHistoryPeriod используется для приёма периода из параметров запроса.
type DummyHistoryPeriod struct {
	From string `json:"from"`
	To   string `json:"to"`
}
