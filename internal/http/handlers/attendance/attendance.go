// Package attendance реализует HTTP-обработчики журнала посещений.
package attendance

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gym-membership/internal/http/request"
	"github.com/magabrotheeeer/gym-membership/internal/http/response"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Service описывает операции журнала посещений.
type Service interface {
	Register(ctx context.Context, req models.DummyAttendance) (*models.Attendance, error)
	Update(ctx context.Context, id int64, req models.DummyAttendance) (*models.Attendance, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Attendance, error)
	List(ctx context.Context, f models.AttendanceFilter) ([]*models.Attendance, error)
	Rate(ctx context.Context, memberID int64, from, to time.Time) (*models.AttendanceRate, error)
	OverallRate(ctx context.Context, memberID int64) (*models.AttendanceRate, error)
}

// Handler обслуживает маршруты /attendance.
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

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.DummyAttendance, bool) {
	var req models.DummyAttendance
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
// @Summary Отметить посещение
// @Description Требуется активная непросроченная запись. Одна отметка на участника в день.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param request body models.DummyAttendance true "Отметка"
// @Success 201 {object} response.Response{data=models.Attendance}
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Failure 409 {object} response.ErrorResponse "Отметка за этот день уже есть"
// @Failure 422 {object} response.ErrorResponse "Нет действующей записи"
// @Router /attendance [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.attendance.Register"
	log := h.logger(r, op)

	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}
	a, err := h.service.Register(r.Context(), req)
	if err != nil {
		log.Error("failed to register attendance", sl.Err(err))
		response.FromError(w, r, err, "could not register attendance")
		return
	}

	log.Info("attendance registered", slog.Int64("id", a.ID), slog.Int64("member_id", a.MemberID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(a))
}

// Update godoc
// @Summary Исправить отметку
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "ID отметки"
// @Param request body models.DummyAttendance true "Отметка"
// @Success 200 {object} response.Response{data=models.Attendance}
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /attendance/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.attendance.Update"
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
	a, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update attendance", sl.Err(err))
		response.FromError(w, r, err, "could not update attendance")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(a))
}

// Delete godoc
// @Summary Удалить отметку
// @Tags Attendance
// @Param id path int true "ID отметки"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /attendance/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.attendance.Delete"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Error("failed to delete attendance", sl.Err(err))
		response.FromError(w, r, err, "could not delete attendance")
		return
	}

	log.Info("attendance deleted", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Get godoc
// @Summary Получить отметку
// @Tags Attendance
// @Produce json
// @Param id path int true "ID отметки"
// @Success 200 {object} response.Response{data=models.Attendance}
// @Failure 404 {object} response.ErrorResponse
// @Router /attendance/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.attendance.Get"
	log := h.logger(r, op)

	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to get attendance", sl.Err(err))
		response.FromError(w, r, err, "could not get attendance")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(a))
}

// List godoc
// @Summary Список отметок
// @Description date задаёт один день и имеет приоритет над from/to.
// @Tags Attendance
// @Produce json
// @Param member_id query int false "ID участника"
// @Param date query string false "День (YYYY-MM-DD)"
// @Param from query string false "Начало периода (YYYY-MM-DD)"
// @Param to query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=[]models.Attendance}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /attendance [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.attendance.List"
	log := h.logger(r, op)

	var (
		filter models.AttendanceFilter
		err    error
	)
	if filter.MemberID, err = request.QueryID(r, "member_id"); err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	day, err := request.QueryDate(r, "date")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	if day != nil {
		filter.From, filter.To = day, day
	} else {
		if filter.From, err = request.QueryDate(r, "from"); err != nil {
			response.BadRequest(w, r, err.Error())
			return
		}
		if filter.To, err = request.QueryDate(r, "to"); err != nil {
			response.BadRequest(w, r, err.Error())
			return
		}
	}

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list attendance", sl.Err(err))
		response.FromError(w, r, err, "could not list attendance")
		return
	}
	if list == nil {
		list = []*models.Attendance{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Rate godoc
// @Summary Процент посещаемости участника
// @Description Без параметров считается за всё время, иначе нужны оба конца периода.
// @Tags Attendance
// @Produce json
// @Param id path int true "ID участника"
// @Param from query string false "Начало периода (YYYY-MM-DD)"
// @Param to query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=models.AttendanceRate}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /members/{id}/attendance-rate [get]
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.attendance.Rate"
	log := h.logger(r, op)

	memberID, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	from, err := request.QueryDate(r, "from")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	to, err := request.QueryDate(r, "to")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	var rate *models.AttendanceRate
	switch {
	case from == nil && to == nil:
		rate, err = h.service.OverallRate(r.Context(), memberID)
	case from != nil && to != nil:
		rate, err = h.service.Rate(r.Context(), memberID, *from, *to)
	default:
		response.BadRequest(w, r, "from and to must be given together")
		return
	}
	if err != nil {
		log.Error("failed to compute attendance rate", sl.Err(err))
		response.FromError(w, r, err, "could not compute attendance rate")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(rate))
}
