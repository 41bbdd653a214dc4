package models

import "time"

// Attendance — отметка присутствия участника за календарный день.
// Для пары (участник, дата) существует не более одной записи.
type Attendance struct {
	ID       int64     `json:"id"`
	MemberID int64     `json:"member_id"`
	Date     time.Time `json:"date"`
	Present  bool      `json:"present"`
}

// DummyAttendance используется для приёма отметки из JSON-запроса.
// Если Present не передан, считается, что участник присутствовал.
type DummyAttendance struct {
	MemberID int64  `json:"member_id" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Present  *bool  `json:"present,omitempty"`
}

// AttendanceFilter задаёт выборку посещений. Нулевые поля не участвуют в фильтре.
type AttendanceFilter struct {
	MemberID int64
	From     *time.Time
	To       *time.Time
}

// AttendanceStats — количество отметок и присутствий за выборку.
type AttendanceStats struct {
	Total    int `json:"total"`
	Presents int `json:"presents"`
}

// Rate возвращает долю присутствий в процентах; 0 при пустой выборке.
func (s AttendanceStats) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(s.Presents) / float64(s.Total)
}

// AttendanceRate — доля присутствий участника за период или за всё время.
type AttendanceRate struct {
	MemberID int64      `json:"member_id"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	AttendanceStats
	Rate float64 `json:"rate"`
}
