// Package member реализует HTTP-обработчики карточек участников.
package member

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

// Service описывает бизнес-логику участников.
type Service interface {
	Create(ctx context.Context, req models.DummyMember) (*models.Member, error)
	Get(ctx context.Context, id int64) (*models.Member, error)
}

// Handler обслуживает маршруты /members.
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

// Create godoc
// @Summary Зарегистрировать участника
// @Tags Members
// @Accept json
// @Produce json
// @Param request body models.DummyMember true "Участник"
// @Success 201 {object} response.Response{data=models.Member}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /members [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.Create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyMember
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

	m, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create member", sl.Err(err))
		response.FromError(w, r, err, "could not create member")
		return
	}

	log.Info("member created", slog.Int64("id", m.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(m))
}

// Get godoc
// @Summary Получить участника
// @Tags Members
// @Produce json
// @Param id path int true "ID участника"
// @Success 200 {object} response.Response{data=models.Member}
// @Failure 404 {object} response.ErrorResponse
// @Router /members/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.Get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to get member", sl.Err(err))
		response.FromError(w, r, err, "could not get member")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(m))
}
