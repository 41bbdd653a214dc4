// Package payment реализует журнал платежей по записям на абонемент.
// Признак «оплачено» не хранится: он пересчитывается по сумме платежей.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository определяет методы хранилища платежей.
type Repository interface {
	CreatePayment(ctx context.Context, p models.Payment) (int64, error)
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	ListPayments(ctx context.Context, f models.PaymentFilter) ([]*models.Payment, error)
	SumPayments(ctx context.Context, enrollmentID int64) (decimal.Decimal, error)
	UpdatePayment(ctx context.Context, p models.Payment) error
	DeletePayment(ctx context.Context, id int64) error
}

// Enrollments предоставляет записи на абонемент.
type Enrollments interface {
	Get(ctx context.Context, id int64) (*models.Enrollment, error)
}

// Plans предоставляет тарифы из каталога.
type Plans interface {
	Get(ctx context.Context, id int64) (*models.Plan, error)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Service реализует операции журнала платежей.
type Service struct {
	repo        Repository
	enrollments Enrollments
	plans       Plans
	events      EventPublisher
	clock       clock.Clock
	log         *slog.Logger
}

// New создаёт журнал платежей.
func New(repo Repository, enrollments Enrollments, plans Plans, events EventPublisher,
	clk clock.Clock, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		enrollments: enrollments,
		plans:       plans,
		events:      events,
		clock:       clk,
		log:         log,
	}
}

// Register принимает платёж по действующей записи.
func (s *Service) Register(ctx context.Context, req models.DummyPayment) (*models.Payment, error) {
	const op = "payment.Register"

	p, err := s.paymentFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e, err := s.enrollments.Get(ctx, p.EnrollmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if e.Status != models.EnrollmentActive {
		return nil, fmt.Errorf("%s: %w: enrollment status is %s", op, apperr.ErrEnrollmentInvalid, e.Status)
	}
	if e.IsExpired(s.clock.Now()) {
		return nil, fmt.Errorf("%s: %w: enrollment has expired", op, apperr.ErrEnrollmentInvalid)
	}

	id, err := s.repo.CreatePayment(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id

	s.log.Info("payment registered",
		slog.Int64("id", id), slog.Int64("enrollment_id", p.EnrollmentID), slog.String("amount", p.Amount.String()))
	s.publish(ctx, models.EventPaymentRegistered, p)
	return &p, nil
}

// Update заменяет поля платежа. Пригодность записи не перепроверяется,
// чтобы исправления истории не блокировались текущим статусом записи.
func (s *Service) Update(ctx context.Context, id int64, req models.DummyPayment) (*models.Payment, error) {
	const op = "payment.Update"

	p, err := s.paymentFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id
	if err := s.repo.UpdatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment updated", slog.Int64("id", id))
	return &p, nil
}

// Delete удаляет платёж.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "payment.Delete"
	if err := s.repo.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment deleted", slog.Int64("id", id))
	return nil
}

// Get возвращает платёж по ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "payment.Get"
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// List возвращает платежи по фильтру, новые первыми.
func (s *Service) List(ctx context.Context, f models.PaymentFilter) ([]*models.Payment, error) {
	const op = "payment.List"
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, fmt.Errorf("%s: %w: from is after to", op, apperr.ErrInvalidDate)
	}
	list, err := s.repo.ListPayments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ListByEnrollment возвращает платежи по записи.
func (s *Service) ListByEnrollment(ctx context.Context, enrollmentID int64) ([]*models.Payment, error) {
	return s.List(ctx, models.PaymentFilter{EnrollmentID: enrollmentID})
}

// ListByMember возвращает платежи по всем записям участника.
func (s *Service) ListByMember(ctx context.Context, memberID int64) ([]*models.Payment, error) {
	return s.List(ctx, models.PaymentFilter{MemberID: memberID})
}

// ListByPeriod возвращает платежи с датой в интервале [from, to].
func (s *Service) ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.Payment, error) {
	from, to = month.Day(from), month.Day(to)
	return s.List(ctx, models.PaymentFilter{From: &from, To: &to})
}

// TotalPaid возвращает сумму платежей по записи; ноль, если платежей нет.
func (s *Service) TotalPaid(ctx context.Context, enrollmentID int64) (decimal.Decimal, error) {
	const op = "payment.TotalPaid"
	total, err := s.repo.SumPayments(ctx, enrollmentID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// IsPaidUp сообщает, покрывают ли платежи цену тарифа записи.
func (s *Service) IsPaidUp(ctx context.Context, e *models.Enrollment) (bool, error) {
	const op = "payment.IsPaidUp"
	summary, err := s.summarize(ctx, e)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return summary.PaidUp, nil
}

// Summary возвращает сумму платежей, цену тарифа и признак оплаты записи.
func (s *Service) Summary(ctx context.Context, enrollmentID int64) (*models.PaymentSummary, error) {
	const op = "payment.Summary"
	e, err := s.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	summary, err := s.summarize(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return summary, nil
}

func (s *Service) summarize(ctx context.Context, e *models.Enrollment) (*models.PaymentSummary, error) {
	plan, err := s.plans.Get(ctx, e.PlanID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.SumPayments(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return &models.PaymentSummary{
		EnrollmentID: e.ID,
		TotalPaid:    total,
		PlanPrice:    plan.Price,
		PaidUp:       total.GreaterThanOrEqual(plan.Price),
	}, nil
}

func (s *Service) paymentFromRequest(req models.DummyPayment) (models.Payment, error) {
	if req.EnrollmentID == 0 || req.PaymentDate == "" {
		return models.Payment{}, fmt.Errorf("%w: enrollment and payment date are required", apperr.ErrInvalid)
	}
	paid, err := month.ParseDate(req.PaymentDate)
	if err != nil {
		return models.Payment{}, fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
	}
	if !req.Amount.IsPositive() {
		return models.Payment{}, fmt.Errorf("%w: amount must be greater than zero", apperr.ErrInvalid)
	}
	var method string
	if req.Method != nil {
		method = strings.TrimSpace(*req.Method)
		if method == "" {
			return models.Payment{}, fmt.Errorf("%w: method must not be blank", apperr.ErrInvalid)
		}
	}
	if paid.After(month.Day(s.clock.Now())) {
		return models.Payment{}, fmt.Errorf("%w: payment date is in the future", apperr.ErrInvalidDate)
	}

	return models.Payment{
		EnrollmentID: req.EnrollmentID,
		PaymentDate:  paid,
		Amount:       req.Amount,
		Method:       method,
	}, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload any) {
	event := models.Event{Type: eventType, OccurredAt: s.clock.Now().UTC(), Payload: payload}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("type", eventType), sl.Err(err))
	}
}
