// Package plan реализует HTTP-обработчики каталога тарифов.
package plan

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

// Service описывает бизнес-логику каталога тарифов.
type Service interface {
	Create(ctx context.Context, req models.DummyPlan) (*models.Plan, error)
	Update(ctx context.Context, id int64, req models.DummyPlan) (*models.Plan, error)
	Get(ctx context.Context, id int64) (*models.Plan, error)
	List(ctx context.Context) ([]*models.Plan, error)
	ListActive(ctx context.Context) ([]*models.Plan, error)
	Delete(ctx context.Context, id int64) error
	Activate(ctx context.Context, id int64) (*models.Plan, error)
	Deactivate(ctx context.Context, id int64) (*models.Plan, error)
}

// Handler обслуживает маршруты /plans.
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
// @Summary Создать тариф
// @Tags Plans
// @Accept json
// @Produce json
// @Param request body models.DummyPlan true "Тариф"
// @Success 201 {object} response.Response{data=models.Plan}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse
// @Router /plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Create"
	log := h.logger(r, op)

	var req models.DummyPlan
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

	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		response.FromError(w, r, err, "could not create plan")
		return
	}

	log.Info("plan created", slog.Int64("id", p.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(p))
}

// Update godoc
// @Summary Заменить тариф
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path int true "ID тарифа"
// @Param request body models.DummyPlan true "Тариф"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /plans/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Update"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	var req models.DummyPlan
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

	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update plan", sl.Err(err))
		response.FromError(w, r, err, "could not update plan")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(p))
}

// Get godoc
// @Summary Получить тариф
// @Tags Plans
// @Produce json
// @Param id path int true "ID тарифа"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 404 {object} response.ErrorResponse
// @Router /plans/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Get"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to get plan", sl.Err(err))
		response.FromError(w, r, err, "could not get plan")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(p))
}

// List godoc
// @Summary Список тарифов
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Plan}
// @Router /plans [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.plan.List", h.service.List)
}

// ListActive godoc
// @Summary Список активных тарифов
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Plan}
// @Router /plans/active [get]
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.plan.ListActive", h.service.ListActive)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, op string,
	fetch func(context.Context) ([]*models.Plan, error)) {
	log := h.logger(r, op)

	plans, err := fetch(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		response.FromError(w, r, err, "could not list plans")
		return
	}
	if plans == nil {
		plans = []*models.Plan{}
	}
	render.JSON(w, r, response.StatusOKWithData(plans))
}

// Delete godoc
// @Summary Удалить тариф
// @Tags Plans
// @Param id path int true "ID тарифа"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Тариф используется записями"
// @Router /plans/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Delete"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Error("failed to delete plan", sl.Err(err))
		response.FromError(w, r, err, "could not delete plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activate godoc
// @Summary Активировать тариф
// @Tags Plans
// @Produce json
// @Param id path int true "ID тарифа"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 404 {object} response.ErrorResponse
// @Router /plans/{id}/activate [post]
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, "handlers.plan.Activate", h.service.Activate)
}

// Deactivate godoc
// @Summary Деактивировать тариф
// @Tags Plans
// @Produce json
// @Param id path int true "ID тарифа"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 404 {object} response.ErrorResponse
// @Router /plans/{id}/deactivate [post]
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, "handlers.plan.Deactivate", h.service.Deactivate)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, op string,
	apply func(context.Context, int64) (*models.Plan, error)) {
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	p, err := apply(r.Context(), id)
	if err != nil {
		log.Error("failed to change plan status", sl.Err(err))
		response.FromError(w, r, err, "could not change plan status")
		return
	}
	log.Info("plan status changed", slog.Int64("id", id), slog.String("status", string(p.Status)))
	render.JSON(w, r, response.StatusOKWithData(p))
}
