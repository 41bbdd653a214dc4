// Package response содержит типы и функции для формирования единообразных
// JSON-ответов HTTP-обработчиков: успешных ответов, ошибок и сообщений валидации.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Status — "OK" или "Error", Error заполняется при неуспехе, Data при успехе.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// StatusFromError сопоставляет доменную ошибку с HTTP-статусом.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, apperr.ErrAggregation):
		return http.StatusInternalServerError
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrStatusInvalid),
		errors.Is(err, apperr.ErrDuplicateActive),
		errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalid),
		errors.Is(err, apperr.ErrInvalidDate),
		errors.Is(err, apperr.ErrInvalidPeriod),
		errors.Is(err, apperr.ErrPlanInvalid),
		errors.Is(err, apperr.ErrEnrollmentInvalid),
		errors.Is(err, apperr.ErrNoActiveEnrollment):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// FromError пишет ответ об ошибке. Для доменных ошибок клиент видит их текст,
// для внутренних только fallback.
func FromError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := StatusFromError(err)
	msg := fallback
	if status != http.StatusInternalServerError {
		msg = publicMessage(err)
	}
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// publicMessage отрезает от текста ошибки префиксы op, оставляя описание
// начиная с доменного вида ошибки.
func publicMessage(err error) string {
	text := err.Error()
	for _, kind := range []error{
		apperr.ErrNotFound, apperr.ErrStatusInvalid, apperr.ErrDuplicateActive, apperr.ErrConflict,
		apperr.ErrInvalidDate, apperr.ErrInvalidPeriod, apperr.ErrPlanInvalid, apperr.ErrEnrollmentInvalid,
		apperr.ErrNoActiveEnrollment, apperr.ErrInvalid,
	} {
		if !errors.Is(err, kind) {
			continue
		}
		if i := strings.Index(text, kind.Error()); i >= 0 {
			return text[i:]
		}
		return kind.Error()
	}
	return text
}

// BadRequest пишет ответ 400 с сообщением.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error(msg))
}

// Validation пишет ответ 422 с перечнем нарушений валидации.
func Validation(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusUnprocessableEntity)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		render.JSON(w, r, ValidationError(verrs))
		return
	}
	render.JSON(w, r, Error(err.Error()))
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение превращается в читаемый текст, нарушения объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
