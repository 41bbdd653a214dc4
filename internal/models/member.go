package models

import "time"

// Member — участник спортзала.
type Member struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// DummyMember используется для приёма участника из JSON-запроса.
type DummyMember struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=100"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
	JoinedAt string `json:"joined_at,omitempty"`
}
