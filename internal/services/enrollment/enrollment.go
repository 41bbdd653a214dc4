// Package enrollment реализует жизненный цикл записи участника на абонемент:
// создание, замену полей, отмену, приостановку, возобновление и продление.
//
// Допустимые переходы:
//
//	ACTIVE   -> CANCELED, INACTIVE
//	INACTIVE -> ACTIVE, CANCELED
//	CANCELED -> (конечный)
//
// Статус PENDING объявлен в схеме, но ни одна операция его не выставляет.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository определяет методы хранилища записей на абонемент.
type Repository interface {
	// CreateEnrollmentExclusive атомарно проверяет отсутствие другой
	// активной записи участника и сохраняет новую.
	CreateEnrollmentExclusive(ctx context.Context, e models.Enrollment) (int64, error)
	// CreateEnrollment сохраняет запись без проверки других активных записей.
	CreateEnrollment(ctx context.Context, e models.Enrollment) (int64, error)
	GetEnrollment(ctx context.Context, id int64) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context, f models.EnrollmentFilter) ([]*models.Enrollment, error)
	ActiveEnrollmentForMember(ctx context.Context, memberID int64) (*models.Enrollment, error)
	UpdateEnrollment(ctx context.Context, e models.Enrollment) error
	SetEnrollmentStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error
}

// Members проверяет существование участника.
type Members interface {
	GetMember(ctx context.Context, id int64) (*models.Member, error)
}

// Plans предоставляет тарифы из каталога.
type Plans interface {
	Get(ctx context.Context, id int64) (*models.Plan, error)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Service реализует операции над записями на абонемент.
type Service struct {
	repo    Repository
	members Members
	plans   Plans
	events  EventPublisher
	clock   clock.Clock
	log     *slog.Logger
}

// New создаёт сервис записей на абонемент.
func New(repo Repository, members Members, plans Plans, events EventPublisher,
	clk clock.Clock, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		members: members,
		plans:   plans,
		events:  events,
		clock:   clk,
		log:     log,
	}
}

// Create оформляет новую запись участника по активному тарифу.
// Дата окончания выводится из даты начала и длительности тарифа.
func (s *Service) Create(ctx context.Context, req models.DummyEnrollment) (*models.Enrollment, error) {
	const op = "enrollment.Create"

	if req.MemberID == 0 || req.PlanID == 0 || req.StartDate == "" {
		return nil, fmt.Errorf("%s: %w: member, plan and start date are required", op, apperr.ErrInvalid)
	}
	start, err := month.ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, apperr.ErrInvalid, err.Error())
	}
	if _, err := s.members.GetMember(ctx, req.MemberID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plan, err := s.activePlan(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Окончательно единственность активной записи проверяет CreateEnrollmentExclusive.
	if _, err := s.repo.ActiveEnrollmentForMember(ctx, req.MemberID); err == nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrDuplicateActive)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if start.Before(s.today()) {
		return nil, fmt.Errorf("%s: %w: start date is in the past", op, apperr.ErrInvalidDate)
	}
	end := month.AddMonths(start, plan.DurationMonths)
	if month.Between(start, end) != plan.DurationMonths {
		return nil, fmt.Errorf("%s: %w: period does not match plan duration", op, apperr.ErrInvalidDate)
	}

	e := models.Enrollment{
		MemberID:  req.MemberID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   end,
		Status:    models.EnrollmentActive,
	}
	id, err := s.repo.CreateEnrollmentExclusive(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.ID = id

	s.log.Info("enrollment created",
		slog.Int64("id", id), slog.Int64("member_id", e.MemberID), slog.Int64("plan_id", e.PlanID))
	s.publish(ctx, models.EventEnrollmentCreated, e)
	return &e, nil
}

// Update заменяет участника, тариф и даты записи. Переданная дата окончания
// принимается как есть; если она не передана, выводится из тарифа.
func (s *Service) Update(ctx context.Context, id int64, req models.DummyEnrollment) (*models.Enrollment, error) {
	const op = "enrollment.Update"

	if req.MemberID == 0 || req.PlanID == 0 || req.StartDate == "" {
		return nil, fmt.Errorf("%s: %w: member, plan and start date are required", op, apperr.ErrInvalid)
	}
	start, err := month.ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, apperr.ErrInvalid, err.Error())
	}

	current, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.MemberID != current.MemberID {
		if _, err := s.members.GetMember(ctx, req.MemberID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	plan, err := s.activePlan(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	end := month.AddMonths(start, plan.DurationMonths)
	if req.EndDate != "" {
		if end, err = month.ParseDate(req.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w: %s", op, apperr.ErrInvalid, err.Error())
		}
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%s: %w: start date must be before end date", op, apperr.ErrInvalidDate)
	}
	if start.Before(s.today()) {
		return nil, fmt.Errorf("%s: %w: start date is in the past", op, apperr.ErrInvalidDate)
	}

	updated := *current
	updated.MemberID = req.MemberID
	updated.PlanID = plan.ID
	updated.StartDate = start
	updated.EndDate = end
	if err := s.repo.UpdateEnrollment(ctx, updated); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("enrollment updated", slog.Int64("id", id))
	return &updated, nil
}

// Cancel переводит запись в конечный статус CANCELED.
func (s *Service) Cancel(ctx context.Context, id int64) (*models.Enrollment, error) {
	const op = "enrollment.Cancel"

	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if e.Status == models.EnrollmentCanceled {
		return nil, fmt.Errorf("%s: %w: enrollment is already canceled", op, apperr.ErrStatusInvalid)
	}
	return s.transition(ctx, op, e, models.EnrollmentCanceled, models.EventEnrollmentCanceled)
}

// Activate возобновляет приостановленную запись, если её срок не истёк.
func (s *Service) Activate(ctx context.Context, id int64) (*models.Enrollment, error) {
	const op = "enrollment.Activate"

	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch e.Status {
	case models.EnrollmentActive:
		return nil, fmt.Errorf("%s: %w: enrollment is already active", op, apperr.ErrStatusInvalid)
	case models.EnrollmentCanceled:
		return nil, fmt.Errorf("%s: %w: enrollment is canceled", op, apperr.ErrStatusInvalid)
	}
	if e.IsExpired(s.clock.Now()) {
		return nil, fmt.Errorf("%s: %w: enrollment has expired", op, apperr.ErrInvalidDate)
	}
	return s.transition(ctx, op, e, models.EnrollmentActive, models.EventEnrollmentActivated)
}

// Deactivate приостанавливает запись.
func (s *Service) Deactivate(ctx context.Context, id int64) (*models.Enrollment, error) {
	const op = "enrollment.Deactivate"

	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch e.Status {
	case models.EnrollmentInactive:
		return nil, fmt.Errorf("%s: %w: enrollment is already inactive", op, apperr.ErrStatusInvalid)
	case models.EnrollmentCanceled:
		return nil, fmt.Errorf("%s: %w: enrollment is canceled", op, apperr.ErrStatusInvalid)
	}
	return s.transition(ctx, op, e, models.EnrollmentInactive, models.EventEnrollmentDeactivated)
}

// Renew создаёт новую активную запись, начинающуюся на следующий день после
// окончания текущей. Исходная запись не меняется. Наличие других активных
// записей участника не проверяется.
func (s *Service) Renew(ctx context.Context, id int64) (*models.Enrollment, error) {
	const op = "enrollment.Renew"

	current, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current.Status != models.EnrollmentActive {
		return nil, fmt.Errorf("%s: %w: only active enrollments can be renewed", op, apperr.ErrStatusInvalid)
	}
	plan, err := s.activePlan(ctx, current.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := current.EndDate.AddDate(0, 0, 1)
	renewed := models.Enrollment{
		MemberID:  current.MemberID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   month.AddMonths(start, plan.DurationMonths),
		Status:    models.EnrollmentActive,
	}
	newID, err := s.repo.CreateEnrollment(ctx, renewed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	renewed.ID = newID

	s.log.Warn("enrollment renewed while previous one is still active",
		slog.String("op", op),
		slog.Int64("previous_id", current.ID),
		slog.Int64("id", newID),
		slog.Int64("member_id", current.MemberID))
	s.publish(ctx, models.EventEnrollmentRenewed, renewed)
	return &renewed, nil
}

// Get возвращает запись по ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Enrollment, error) {
	const op = "enrollment.Get"
	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// List возвращает записи по фильтру, новые по дате начала первыми.
func (s *Service) List(ctx context.Context, f models.EnrollmentFilter) ([]*models.Enrollment, error) {
	const op = "enrollment.List"
	if f.Status != "" && !validStatus(f.Status) {
		return nil, fmt.Errorf("%s: %w: unknown status %q", op, apperr.ErrInvalid, f.Status)
	}
	list, err := s.repo.ListEnrollments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ListByMember возвращает все записи участника.
func (s *Service) ListByMember(ctx context.Context, memberID int64) ([]*models.Enrollment, error) {
	return s.List(ctx, models.EnrollmentFilter{MemberID: memberID})
}

// ListByStatus возвращает записи с указанным статусом.
func (s *Service) ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]*models.Enrollment, error) {
	return s.List(ctx, models.EnrollmentFilter{Status: status})
}

// ListByPlan возвращает записи по тарифу.
func (s *Service) ListByPlan(ctx context.Context, planID int64) ([]*models.Enrollment, error) {
	return s.List(ctx, models.EnrollmentFilter{PlanID: planID})
}

// ActiveForMember возвращает активную запись участника или ErrNotFound.
// Срок записи не проверяется: это решает вызывающий.
func (s *Service) ActiveForMember(ctx context.Context, memberID int64) (*models.Enrollment, error) {
	const op = "enrollment.ActiveForMember"
	e, err := s.repo.ActiveEnrollmentForMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

func (s *Service) transition(ctx context.Context, op string, e *models.Enrollment,
	to models.EnrollmentStatus, event string) (*models.Enrollment, error) {
	if err := s.repo.SetEnrollmentStatus(ctx, e.ID, to); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	from := e.Status
	e.Status = to

	s.log.Info("enrollment status changed",
		slog.Int64("id", e.ID), slog.String("from", string(from)), slog.String("to", string(to)))
	s.publish(ctx, event, *e)
	return e, nil
}

func (s *Service) activePlan(ctx context.Context, planID int64) (*models.Plan, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive() {
		return nil, fmt.Errorf("%w: plan %d", apperr.ErrPlanInvalid, planID)
	}
	return plan, nil
}

func (s *Service) today() time.Time {
	return month.Day(s.clock.Now())
}

func (s *Service) publish(ctx context.Context, eventType string, payload any) {
	event := models.Event{Type: eventType, OccurredAt: s.clock.Now().UTC(), Payload: payload}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("type", eventType), sl.Err(err))
	}
}

func validStatus(status models.EnrollmentStatus) bool {
	switch status {
	case models.EnrollmentActive, models.EnrollmentInactive, models.EnrollmentPending, models.EnrollmentCanceled:
		return true
	}
	return false
}
