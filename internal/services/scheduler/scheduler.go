// Package scheduler ищет записи, которые заканчиваются завтра, и ставит
// напоминания участникам в очередь notification.upcoming.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
	"github.com/magabrotheeeer/gym-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository ищет активные записи с заданной датой окончания.
type Repository interface {
	FindEnrollmentsExpiringOn(ctx context.Context, day time.Time) ([]*models.EnrollmentExpiring, error)
}

// Service периодически публикует напоминания об окончании абонементов.
type Service struct {
	repo     Repository
	ch       rabbitmq.Channel
	clock    clock.Clock
	interval time.Duration
	log      *slog.Logger
}

// New создаёт планировщик напоминаний.
func New(repo Repository, ch rabbitmq.Channel, clk clock.Clock, interval time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		ch:       ch,
		clock:    clk,
		interval: interval,
		log:      log,
	}
}

// Run выполняет проход сразу и затем раз в interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context) {
	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(s.interval):
			s.RunOnce(ctx)
		}
	}
}

// RunOnce публикует напоминания о записях, заканчивающихся завтра, и
// возвращает число опубликованных сообщений. Ошибки только логируются.
func (s *Service) RunOnce(ctx context.Context) int {
	tomorrow := month.Day(s.clock.Now()).AddDate(0, 0, 1)
	log := s.log.With(slog.String("end_date", tomorrow.Format(month.DateLayout)))

	log.Info("looking for enrollments expiring tomorrow")
	expiring, err := s.repo.FindEnrollmentsExpiringOn(ctx, tomorrow)
	if err != nil {
		log.Error("failed to find expiring enrollments", sl.Err(err))
		return 0
	}
	if len(expiring) == 0 {
		log.Info("no expiring enrollments found")
		return 0
	}

	log.Info("found expiring enrollments", slog.Int("count", len(expiring)))
	published := 0
	for _, e := range expiring {
		if err := rabbitmq.PublishMessage(s.ch, rabbitmq.NotificationsExchange, rabbitmq.UpcomingRoutingKey, e); err != nil {
			log.Error("failed to publish reminder", slog.Int64("enrollment_id", e.EnrollmentID), sl.Err(err))
			continue
		}
		published++
	}
	return published
}
