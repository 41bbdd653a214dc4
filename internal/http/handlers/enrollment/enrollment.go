// Package enrollment реализует HTTP-обработчики записей на абонемент.
package enrollment

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

// Service описывает жизненный цикл записей.
type Service interface {
	Create(ctx context.Context, req models.DummyEnrollment) (*models.Enrollment, error)
	Update(ctx context.Context, id int64, req models.DummyEnrollment) (*models.Enrollment, error)
	Get(ctx context.Context, id int64) (*models.Enrollment, error)
	List(ctx context.Context, f models.EnrollmentFilter) ([]*models.Enrollment, error)
	Cancel(ctx context.Context, id int64) (*models.Enrollment, error)
	Activate(ctx context.Context, id int64) (*models.Enrollment, error)
	Deactivate(ctx context.Context, id int64) (*models.Enrollment, error)
	Renew(ctx context.Context, id int64) (*models.Enrollment, error)
}

// Handler обслуживает маршруты /enrollments.
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

// Create godoc
// @Summary Оформить запись на абонемент
// @Description Дата окончания вычисляется из длительности тарифа. У участника может быть только одна активная запись.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param request body models.DummyEnrollment true "Запись"
// @Success 201 {object} response.Response{data=models.Enrollment}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Участник или тариф не найден"
// @Failure 409 {object} response.ErrorResponse "Уже есть активная запись"
// @Failure 422 {object} response.ErrorResponse "Тариф не активен или дата в прошлом"
// @Router /enrollments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.enrollment.Create"
	log := h.logger(r, op)

	var req models.DummyEnrollment
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Validation(w, r, err)
		return
	}

	e, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create enrollment", sl.Err(err))
		response.FromError(w, r, err, "could not create enrollment")
		return
	}

	log.Info("enrollment created", slog.Int64("id", e.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(e))
}

// Update godoc
// @Summary Заменить запись
// @Description Статус не меняется. Переданная дата окончания принимается как есть.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param request body models.DummyEnrollment true "Запись"
// @Success 200 {object} response.Response{data=models.Enrollment}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /enrollments/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.enrollment.Update"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	var req models.DummyEnrollment
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Validation(w, r, err)
		return
	}

	e, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update enrollment", sl.Err(err))
		response.FromError(w, r, err, "could not update enrollment")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(e))
}

// Get godoc
// @Summary Получить запись
// @Tags Enrollments
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} response.Response{data=models.Enrollment}
// @Failure 404 {object} response.ErrorResponse
// @Router /enrollments/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.enrollment.Get"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to get enrollment", sl.Err(err))
		response.FromError(w, r, err, "could not get enrollment")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(e))
}

// List godoc
// @Summary Список записей
// @Tags Enrollments
// @Produce json
// @Param member_id query int false "ID участника"
// @Param plan_id query int false "ID тарифа"
// @Param status query string false "Статус" Enums(ACTIVE, INACTIVE, PENDING, CANCELED)
// @Success 200 {object} response.Response{data=[]models.Enrollment}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /enrollments [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.enrollment.List"
	log := h.logger(r, op)

	memberID, err := request.QueryID(r, "member_id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	planID, err := request.QueryID(r, "plan_id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	filter := models.EnrollmentFilter{
		MemberID: memberID,
		PlanID:   planID,
		Status:   models.EnrollmentStatus(r.URL.Query().Get("status")),
	}

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list enrollments", sl.Err(err))
		response.FromError(w, r, err, "could not list enrollments")
		return
	}
	if list == nil {
		list = []*models.Enrollment{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Cancel godoc
// @Summary Отменить запись
// @Description CANCELED — конечный статус.
// @Tags Enrollments
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} response.Response{data=models.Enrollment}
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Запись уже отменена"
// @Router /enrollments/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "handlers.enrollment.Cancel", h.service.Cancel)
}

// Activate godoc
// @Summary Активировать запись
// @Tags Enrollments
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} response.Response{data=models.Enrollment}
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход"
// @Failure 422 {object} response.ErrorResponse "Срок записи истёк"
// @Router /enrollments/{id}/activate [post]
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "handlers.enrollment.Activate", h.service.Activate)
}

// Deactivate godoc
// @Summary Приостановить запись
// @Tags Enrollments
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} response.Response{data=models.Enrollment}
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход"
// @Router /enrollments/{id}/deactivate [post]
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "handlers.enrollment.Deactivate", h.service.Deactivate)
}

// Renew godoc
// @Summary Продлить запись
// @Description Создаёт новую запись, которая начинается на следующий день после окончания текущей.
// @Tags Enrollments
// @Produce json
// @Param id path int true "ID записи"
// @Success 201 {object} response.Response{data=models.Enrollment}
// @Failure 409 {object} response.ErrorResponse "Запись не активна"
// @Failure 422 {object} response.ErrorResponse "Тариф не активен"
// @Router /enrollments/{id}/renew [post]
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.enrollment.Renew"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	e, err := h.service.Renew(r.Context(), id)
	if err != nil {
		log.Error("failed to renew enrollment", sl.Err(err))
		response.FromError(w, r, err, "could not renew enrollment")
		return
	}

	log.Info("enrollment renewed", slog.Int64("from", id), slog.Int64("id", e.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(e))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string,
	apply func(context.Context, int64) (*models.Enrollment, error)) {
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	e, err := apply(r.Context(), id)
	if err != nil {
		log.Error("enrollment transition failed", sl.Err(err))
		response.FromError(w, r, err, "could not change enrollment status")
		return
	}

	log.Info("enrollment status changed", slog.Int64("id", id), slog.String("status", string(e.Status)))
	render.JSON(w, r, response.StatusOKWithData(e))
}
