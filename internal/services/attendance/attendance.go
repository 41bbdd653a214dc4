// Package attendance реализует журнал посещений. Отметку можно создать только
// участнику с действующей активной записью на абонемент; проверка выполняется
// лишь в момент записи.
package attendance

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

// Repository определяет методы хранилища посещений.
type Repository interface {
	CreateAttendance(ctx context.Context, a models.Attendance) (int64, error)
	GetAttendance(ctx context.Context, id int64) (*models.Attendance, error)
	AttendanceExists(ctx context.Context, memberID int64, day time.Time) (bool, error)
	ListAttendance(ctx context.Context, f models.AttendanceFilter) ([]*models.Attendance, error)
	AttendanceStats(ctx context.Context, f models.AttendanceFilter) (models.AttendanceStats, error)
	UpdateAttendance(ctx context.Context, a models.Attendance) error
	DeleteAttendance(ctx context.Context, id int64) error
}

// Members проверяет существование участника.
type Members interface {
	GetMember(ctx context.Context, id int64) (*models.Member, error)
}

// Enrollments находит активную запись участника.
type Enrollments interface {
	ActiveForMember(ctx context.Context, memberID int64) (*models.Enrollment, error)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Service реализует операции журнала посещений.
type Service struct {
	repo        Repository
	members     Members
	enrollments Enrollments
	events      EventPublisher
	clock       clock.Clock
	log         *slog.Logger
}

// New создаёт журнал посещений.
func New(repo Repository, members Members, enrollments Enrollments, events EventPublisher,
	clk clock.Clock, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		members:     members,
		enrollments: enrollments,
		events:      events,
		clock:       clk,
		log:         log,
	}
}

// Register отмечает посещение участника за день. Если present не передан,
// участник считается присутствовавшим.
func (s *Service) Register(ctx context.Context, req models.DummyAttendance) (*models.Attendance, error) {
	const op = "attendance.Register"

	a, err := attendanceFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.members.GetMember(ctx, a.MemberID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.checkNotFuture(a.Date); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.checkUnique(ctx, a.MemberID, a.Date); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e, err := s.enrollments.ActiveForMember(ctx, a.MemberID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNoActiveEnrollment)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	case e.IsExpired(s.clock.Now()):
		return nil, fmt.Errorf("%s: %w: enrollment %d has expired", op, apperr.ErrNoActiveEnrollment, e.ID)
	}

	id, err := s.repo.CreateAttendance(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.ID = id

	s.log.Info("attendance registered",
		slog.Int64("id", id), slog.Int64("member_id", a.MemberID), slog.Bool("present", a.Present))
	s.publish(ctx, models.EventAttendanceRegistered, a)
	return &a, nil
}

// Update заменяет поля отметки. Уникальность проверяется только при смене
// участника или даты; активность записи не перепроверяется.
func (s *Service) Update(ctx context.Context, id int64, req models.DummyAttendance) (*models.Attendance, error) {
	const op = "attendance.Update"

	a, err := attendanceFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.checkNotFuture(a.Date); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current, err := s.repo.GetAttendance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if a.MemberID != current.MemberID {
		if _, err := s.members.GetMember(ctx, a.MemberID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if a.MemberID != current.MemberID || !a.Date.Equal(current.Date) {
		if err := s.checkUnique(ctx, a.MemberID, a.Date); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	a.ID = id
	if err := s.repo.UpdateAttendance(ctx, a); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("attendance updated", slog.Int64("id", id))
	return &a, nil
}

// Delete удаляет отметку.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "attendance.Delete"
	if err := s.repo.DeleteAttendance(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("attendance deleted", slog.Int64("id", id))
	return nil
}

// Get возвращает отметку по ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Attendance, error) {
	const op = "attendance.Get"
	a, err := s.repo.GetAttendance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// List возвращает отметки по фильтру, новые первыми.
func (s *Service) List(ctx context.Context, f models.AttendanceFilter) ([]*models.Attendance, error) {
	const op = "attendance.List"
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, fmt.Errorf("%s: %w: from is after to", op, apperr.ErrInvalidDate)
	}
	list, err := s.repo.ListAttendance(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ListByDate возвращает отметки всех участников за день.
func (s *Service) ListByDate(ctx context.Context, day time.Time) ([]*models.Attendance, error) {
	day = month.Day(day)
	return s.List(ctx, models.AttendanceFilter{From: &day, To: &day})
}

// ListByMember возвращает все отметки участника.
func (s *Service) ListByMember(ctx context.Context, memberID int64) ([]*models.Attendance, error) {
	return s.List(ctx, models.AttendanceFilter{MemberID: memberID})
}

// ListByPeriod возвращает отметки всех участников за интервал [from, to].
func (s *Service) ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.Attendance, error) {
	from, to = month.Day(from), month.Day(to)
	return s.List(ctx, models.AttendanceFilter{From: &from, To: &to})
}

// ListByMemberAndPeriod возвращает отметки участника за интервал [from, to].
func (s *Service) ListByMemberAndPeriod(ctx context.Context, memberID int64, from, to time.Time) ([]*models.Attendance, error) {
	from, to = month.Day(from), month.Day(to)
	return s.List(ctx, models.AttendanceFilter{MemberID: memberID, From: &from, To: &to})
}

// PresenceCount возвращает число присутствий участника за всё время.
func (s *Service) PresenceCount(ctx context.Context, memberID int64) (int, error) {
	const op = "attendance.PresenceCount"
	stats, err := s.repo.AttendanceStats(ctx, models.AttendanceFilter{MemberID: memberID})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return stats.Presents, nil
}

// OverallRate возвращает долю присутствий участника за всё время.
func (s *Service) OverallRate(ctx context.Context, memberID int64) (*models.AttendanceRate, error) {
	return s.rate(ctx, "attendance.OverallRate", models.AttendanceFilter{MemberID: memberID})
}

// Rate возвращает долю присутствий участника за интервал [from, to]:
// 100 × присутствия / отметки, 0 при отсутствии отметок.
func (s *Service) Rate(ctx context.Context, memberID int64, from, to time.Time) (*models.AttendanceRate, error) {
	const op = "attendance.Rate"
	from, to = month.Day(from), month.Day(to)
	if from.After(to) {
		return nil, fmt.Errorf("%s: %w: from is after to", op, apperr.ErrInvalidDate)
	}
	return s.rate(ctx, op, models.AttendanceFilter{MemberID: memberID, From: &from, To: &to})
}

func (s *Service) rate(ctx context.Context, op string, f models.AttendanceFilter) (*models.AttendanceRate, error) {
	stats, err := s.repo.AttendanceStats(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AttendanceRate{
		MemberID:        f.MemberID,
		From:            f.From,
		To:              f.To,
		AttendanceStats: stats,
		Rate:            stats.Rate(),
	}, nil
}

func (s *Service) checkNotFuture(day time.Time) error {
	if day.After(month.Day(s.clock.Now())) {
		return fmt.Errorf("%w: attendance date is in the future", apperr.ErrInvalidDate)
	}
	return nil
}

func (s *Service) checkUnique(ctx context.Context, memberID int64, day time.Time) error {
	exists, err := s.repo.AttendanceExists(ctx, memberID, day)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: attendance for member %d on %s already exists",
			apperr.ErrConflict, memberID, day.Format(month.DateLayout))
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload any) {
	event := models.Event{Type: eventType, OccurredAt: s.clock.Now().UTC(), Payload: payload}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("type", eventType), sl.Err(err))
	}
}

func attendanceFromRequest(req models.DummyAttendance) (models.Attendance, error) {
	if req.MemberID == 0 || req.Date == "" {
		return models.Attendance{}, fmt.Errorf("%w: member and date are required", apperr.ErrInvalid)
	}
	day, err := month.ParseDate(req.Date)
	if err != nil {
		return models.Attendance{}, fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
	}
	present := true
	if req.Present != nil {
		present = *req.Present
	}
	return models.Attendance{MemberID: req.MemberID, Date: day, Present: present}, nil
}
