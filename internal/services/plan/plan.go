// Package plan реализует каталог тарифов абонементов.
// Тарифы читаются через кеш Redis и сбрасываются из него при каждом изменении.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository определяет методы хранилища тарифов.
type Repository interface {
	CreatePlan(ctx context.Context, p models.Plan) (int64, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	ListPlans(ctx context.Context, status models.PlanStatus) ([]*models.Plan, error)
	UpdatePlan(ctx context.Context, p models.Plan) error
	SetPlanStatus(ctx context.Context, id int64, status models.PlanStatus) error
	DeletePlan(ctx context.Context, id int64) error
}

// Cache описывает методы кеширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

const maxNameLen = 100

// Service реализует операции каталога тарифов.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт каталог тарифов. cache может быть nil: тогда тарифы всегда
// читаются из хранилища.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Create проверяет и сохраняет новый тариф. Статус по умолчанию ACTIVE.
func (s *Service) Create(ctx context.Context, req models.DummyPlan) (*models.Plan, error) {
	const op = "plan.Create"

	p, err := planFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.repo.CreatePlan(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id

	s.log.Info("plan created", slog.Int64("id", id), slog.String("name", p.Name))
	return &p, nil
}

// Update полностью заменяет поля тарифа.
func (s *Service) Update(ctx context.Context, id int64, req models.DummyPlan) (*models.Plan, error) {
	const op = "plan.Update"

	p, err := planFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id
	if err := s.repo.UpdatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)

	s.log.Info("plan updated", slog.Int64("id", id))
	return &p, nil
}

// Get возвращает тариф по ID, сначала проверяя кеш.
func (s *Service) Get(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "plan.Get"

	key := cacheKey(id)
	if s.cache != nil {
		var cached models.Plan
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read plan from cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	p, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, p, s.ttl); err != nil {
			s.log.Warn("failed to cache plan", slog.String("key", key), sl.Err(err))
		}
	}
	return p, nil
}

// List возвращает все тарифы.
func (s *Service) List(ctx context.Context) ([]*models.Plan, error) {
	const op = "plan.List"
	plans, err := s.repo.ListPlans(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// ListActive возвращает тарифы, доступные для новых записей.
func (s *Service) ListActive(ctx context.Context) ([]*models.Plan, error) {
	const op = "plan.ListActive"
	plans, err := s.repo.ListPlans(ctx, models.PlanActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// Delete удаляет тариф.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "plan.Delete"
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	s.log.Info("plan deleted", slog.Int64("id", id))
	return nil
}

// Activate делает тариф доступным для новых записей. Допустимо из любого статуса.
func (s *Service) Activate(ctx context.Context, id int64) (*models.Plan, error) {
	return s.setStatus(ctx, "plan.Activate", id, models.PlanActive)
}

// Deactivate снимает тариф с продажи. Допустимо из любого статуса.
func (s *Service) Deactivate(ctx context.Context, id int64) (*models.Plan, error) {
	return s.setStatus(ctx, "plan.Deactivate", id, models.PlanInactive)
}

func (s *Service) setStatus(ctx context.Context, op string, id int64, status models.PlanStatus) (*models.Plan, error) {
	if err := s.repo.SetPlanStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	s.log.Info("plan status changed", slog.Int64("id", id), slog.String("status", string(status)))

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	key := cacheKey(id)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove plan from cache", slog.String("key", key), sl.Err(err))
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("plan:%d", id)
}

func planFromRequest(req models.DummyPlan) (models.Plan, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return models.Plan{}, fmt.Errorf("%w: name is required", apperr.ErrInvalid)
	case utf8.RuneCountInString(name) > maxNameLen:
		return models.Plan{}, fmt.Errorf("%w: name must be at most %d characters", apperr.ErrInvalid, maxNameLen)
	case !req.Price.IsPositive():
		return models.Plan{}, fmt.Errorf("%w: price must be greater than zero", apperr.ErrInvalid)
	case req.DurationMonths < 1:
		return models.Plan{}, fmt.Errorf("%w: duration must be at least one month", apperr.ErrInvalid)
	}

	status := models.PlanActive
	if req.Status != "" {
		status = models.PlanStatus(req.Status)
		if status != models.PlanActive && status != models.PlanInactive {
			return models.Plan{}, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalid, req.Status)
		}
	}

	return models.Plan{
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		Price:          req.Price,
		DurationMonths: req.DurationMonths,
		Status:         status,
	}, nil
}
