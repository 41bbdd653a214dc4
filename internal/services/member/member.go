// Package member ведёт учёт участников спортзала.
package member

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/juju/clock"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository хранит участников.
type Repository interface {
	CreateMember(ctx context.Context, m models.Member) (int64, error)
	GetMember(ctx context.Context, id int64) (*models.Member, error)
}

// Service регистрирует участников и отдаёт их карточки.
type Service struct {
	repo  Repository
	clock clock.Clock
	log   *slog.Logger
}

// New создаёт сервис участников.
func New(repo Repository, clk clock.Clock, log *slog.Logger) *Service {
	return &Service{repo: repo, clock: clk, log: log}
}

// Create регистрирует участника. Без даты вступления берётся сегодняшний день.
func (s *Service) Create(ctx context.Context, req models.DummyMember) (*models.Member, error) {
	const op = "member.Create"

	m := models.Member{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%s: %w: name is required", op, apperr.ErrInvalid)
	}
	m.JoinedAt = month.Day(s.clock.Now())
	if req.JoinedAt != "" {
		joined, err := month.ParseDate(req.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: joined_at: %v", op, apperr.ErrInvalidDate, err)
		}
		if joined.After(m.JoinedAt) {
			return nil, fmt.Errorf("%s: %w: joined_at is in the future", op, apperr.ErrInvalidDate)
		}
		m.JoinedAt = joined
	}

	id, err := s.repo.CreateMember(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.ID = id

	s.log.Info("member created", slog.Int64("id", id))
	return &m, nil
}

// Get возвращает участника по ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Member, error) {
	const op = "member.Get"
	m, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// GetMember — псевдоним Get для сервисов, которым нужен только поиск участника.
func (s *Service) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	return s.Get(ctx, id)
}
