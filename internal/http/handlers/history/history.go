// Package history реализует HTTP-обработчик истории участника.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-membership/internal/http/request"
	"github.com/magabrotheeeer/gym-membership/internal/http/response"
	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/metrics"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Service собирает историю участника.
type Service interface {
	BuildFull(ctx context.Context, memberID int64) (*models.MemberHistory, error)
	BuildForPeriod(ctx context.Context, memberID int64, from, to time.Time) (*models.MemberHistory, error)
}

// Handler обслуживает GET /members/{id}/history.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Get godoc
// @Summary История участника
// @Description Без параметров возвращает полную историю. С параметрами from и to
// @Description планы, оценки, посещения и платежи ограничиваются периодом.
// @Tags History
// @Produce json
// @Param id path int true "ID участника"
// @Param from query string false "Начало периода (YYYY-MM-DD)"
// @Param to query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=models.MemberHistory}
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Failure 422 {object} response.ErrorResponse "Некорректный период"
// @Failure 500 {object} response.ErrorResponse "Сбой сборки раздела"
// @Router /members/{id}/history [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.history.Get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	memberID, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	q := r.URL.Query()
	period := models.DummyHistoryPeriod{From: q.Get("from"), To: q.Get("to")}
	variant := "full"
	if period.From != "" || period.To != "" {
		variant = "period"
	}

	start := time.Now()
	var hist *models.MemberHistory
	if variant == "full" {
		hist, err = h.service.BuildFull(r.Context(), memberID)
	} else {
		hist, err = h.buildForPeriod(r.Context(), memberID, period)
	}
	metrics.HistoryBuildDuration.WithLabelValues(variant).Observe(time.Since(start).Seconds())

	if err != nil {
		var aggErr *apperr.AggregationError
		if errors.As(err, &aggErr) {
			log.Error("history section failed", slog.String("section", aggErr.Section), sl.Err(err))
			response.FromError(w, r, err, fmt.Sprintf("%s: %s", apperr.ErrAggregation, aggErr.Section))
			return
		}
		log.Error("failed to build history", sl.Err(err))
		response.FromError(w, r, err, "could not build member history")
		return
	}

	log.Debug("history built", slog.Int64("member_id", memberID), slog.String("variant", variant))
	render.JSON(w, r, response.StatusOKWithData(hist))
}

// buildForPeriod разбирает границы периода. Отсутствующая граница остаётся
// нулевой и отклоняется сервисом как некорректный период.
func (h *Handler) buildForPeriod(ctx context.Context, memberID int64, p models.DummyHistoryPeriod) (*models.MemberHistory, error) {
	var from, to time.Time
	var err error
	if p.From != "" {
		if from, err = month.ParseDate(p.From); err != nil {
			return nil, fmt.Errorf("%w: from: %v", apperr.ErrInvalidPeriod, err)
		}
	}
	if p.To != "" {
		if to, err = month.ParseDate(p.To); err != nil {
			return nil, fmt.Errorf("%w: to: %v", apperr.ErrInvalidPeriod, err)
		}
	}
	return h.service.BuildForPeriod(ctx, memberID, from, to)
}
