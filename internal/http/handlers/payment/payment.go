// Package payment реализует HTTP-обработчики журнала платежей.
package payment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gym-membership/internal/http/request"
	"github.com/magabrotheeeer/gym-membership/internal/http/response"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Service описывает операции журнала платежей.
type Service interface {
	Register(ctx context.Context, req models.DummyPayment) (*models.Payment, error)
	Update(ctx context.Context, id int64, req models.DummyPayment) (*models.Payment, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Payment, error)
	List(ctx context.Context, f models.PaymentFilter) ([]*models.Payment, error)
	Summary(ctx context.Context, enrollmentID int64) (*models.PaymentSummary, error)
}

// Handler обслуживает маршруты /payments.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.DummyPayment, bool) {
	var req models.DummyPayment
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Validation(w, r, err)
		return req, false
	}
	return req, true
}

// Register godoc
// @Summary Зарегистрировать платёж
// @Description Сумма должна быть положительной, дата не позже сегодняшней.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.DummyPayment true "Платёж"
// @Success 201 {object} response.Response{data=models.Payment}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 422 {object} response.ErrorResponse
// @Router /payments [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Register"
	log := h.logger(r, op)

	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}
	p, err := h.service.Register(r.Context(), req)
	if err != nil {
		log.Error("failed to register payment", sl.Err(err))
		response.FromError(w, r, err, "could not register payment")
		return
	}

	log.Info("payment registered", slog.Int64("id", p.ID), slog.Int64("enrollment_id", p.EnrollmentID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(p))
}

// Update godoc
// @Summary Исправить платёж
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path int true "ID платежа"
// @Param request body models.DummyPayment true "Платёж"
// @Success 200 {object} response.Response{data=models.Payment}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /payments/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Update"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}
	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update payment", sl.Err(err))
		response.FromError(w, r, err, "could not update payment")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(p))
}

// Delete godoc
// @Summary Удалить платёж
// @Tags Payments
// @Param id path int true "ID платежа"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /payments/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Delete"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Error("failed to delete payment", sl.Err(err))
		response.FromError(w, r, err, "could not delete payment")
		return
	}

	log.Info("payment deleted", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Get godoc
// @Summary Получить платёж
// @Tags Payments
// @Produce json
// @Param id path int true "ID платежа"
// @Success 200 {object} response.Response{data=models.Payment}
// @Failure 404 {object} response.ErrorResponse
// @Router /payments/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Get"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to get payment", sl.Err(err))
		response.FromError(w, r, err, "could not get payment")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(p))
}

// List godoc
// @Summary Список платежей
// @Tags Payments
// @Produce json
// @Param enrollment_id query int false "ID записи"
// @Param member_id query int false "ID участника"
// @Param from query string false "Начало периода (YYYY-MM-DD)"
// @Param to query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=[]models.Payment}
// @Failure 400 {object} response.ErrorResponse
// @Router /payments [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.List"
	log := h.logger(r, op)

	var (
		filter models.PaymentFilter
		err    error
	)
	if filter.EnrollmentID, err = request.QueryID(r, "enrollment_id"); err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	if filter.MemberID, err = request.QueryID(r, "member_id"); err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	if filter.From, err = request.QueryDate(r, "from"); err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	if filter.To, err = request.QueryDate(r, "to"); err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		response.FromError(w, r, err, "could not list payments")
		return
	}
	if list == nil {
		list = []*models.Payment{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// TotalPaid godoc
// @Summary Итог оплаты записи
// @Description Сумма платежей и признак полной оплаты относительно цены тарифа.
// @Tags Payments
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} response.Response{data=models.PaymentSummary}
// @Failure 404 {object} response.ErrorResponse
// @Router /enrollments/{id}/total-paid [get]
func (h *Handler) TotalPaid(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.TotalPaid"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	summary, err := h.service.Summary(r.Context(), id)
	if err != nil {
		log.Error("failed to summarize payments", sl.Err(err))
		response.FromError(w, r, err, "could not compute total paid")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(summary))
}
