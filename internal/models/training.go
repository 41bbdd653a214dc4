package models

import "time"

// TrainingPlan — тренировочный план, составленный инструктором для участника.
// DurationWeeks может отсутствовать: такой план не имеет даты окончания.
type TrainingPlan struct {
	ID             int64      `json:"id"`
	MemberID       int64      `json:"member_id"`
	InstructorName string     `json:"instructor_name"`
	CreatedAt      time.Time  `json:"created_at"`
	DurationWeeks  *int       `json:"duration_weeks,omitempty"`
	Description    string     `json:"description,omitempty"`
	Exercises      []Exercise `json:"exercises"`
}

// Exercise — упражнение в тренировочном плане. Load в килограммах, необязателен.
type Exercise struct {
	ID             int64    `json:"id"`
	TrainingPlanID int64    `json:"training_plan_id"`
	Name           string   `json:"name"`
	Sets           int      `json:"sets"`
	Reps           int      `json:"reps"`
	Load           *float64 `json:"load,omitempty"`
}

// PhysicalAssessment — физическая оценка участника.
type PhysicalAssessment struct {
	ID             int64     `json:"id"`
	MemberID       int64     `json:"member_id"`
	Date           time.Time `json:"date"`
	InstructorName string    `json:"instructor_name"`
	Weight         float64   `json:"weight"`
	Height         float64   `json:"height"`
	BodyFat        float64   `json:"body_fat"`
	Measurements   string    `json:"measurements,omitempty"`
}
