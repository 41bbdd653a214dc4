// Package apperr содержит типизированные ошибки бизнес-логики.
//
// Каждая ошибка обозначает отдельную категорию отказа. Сервисы оборачивают их
// через fmt.Errorf("%s: %w: ...", op, apperr.ErrX), а HTTP-слой сопоставляет
// категорию с кодом ответа при помощи errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid — отсутствует или некорректно обязательное поле.
	ErrInvalid = errors.New("invalid")
	// ErrInvalidDate — дата вне допустимого диапазона или нарушен порядок дат.
	ErrInvalidDate = errors.New("invalid date")
	// ErrNotFound — идентификатор не найден в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrStatusInvalid — переход недопустим из текущего статуса.
	ErrStatusInvalid = errors.New("status transition not allowed")
	// ErrDuplicateActive — у участника уже есть активная запись на абонемент.
	ErrDuplicateActive = errors.New("member already has an active enrollment")
	// ErrConflict — нарушена уникальность записи.
	ErrConflict = errors.New("conflict")
	// ErrPlanInvalid — тариф не активен.
	ErrPlanInvalid = errors.New("plan is not active")
	// ErrEnrollmentInvalid — запись не принимает платежи.
	ErrEnrollmentInvalid = errors.New("enrollment is not eligible")
	// ErrNoActiveEnrollment — у участника нет действующей записи.
	ErrNoActiveEnrollment = errors.New("no active enrollment")
	// ErrInvalidPeriod — некорректный период выборки истории.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrAggregation — сбой при сборке истории участника.
	ErrAggregation = errors.New("history aggregation failed")
)

// AggregationError оборачивает первопричину сбоя при сборке истории.
// Section указывает, на каком источнике данных произошёл сбой.
type AggregationError struct {
	Section string
	Err     error
}

// Aggregation создаёт AggregationError для указанного раздела истории.
func Aggregation(section string, err error) *AggregationError {
	return &AggregationError{Section: section, Err: err}
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAggregation, e.Section, e.Err)
}

// Unwrap возвращает первопричину.
func (e *AggregationError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать ошибку с ErrAggregation.
func (e *AggregationError) Is(target error) bool {
	return target == ErrAggregation
}
