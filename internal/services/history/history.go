// Package history собирает историю участника из независимых источников:
// записей на абонемент, платежей, посещений, тренировочных планов и
// физических оценок. Снимок не хранится и строится заново на каждый запрос.
//
// Разделы читаются параллельно и без общей транзакции, поэтому запись,
// сделанная во время сборки, может попасть только в часть разделов.
package history

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/juju/clock"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Разделы истории, которые указываются в AggregationError.
const (
	SectionMember        = "member"
	SectionEnrollments   = "enrollments"
	SectionTrainingPlans = "training_plans"
	SectionAssessments   = "assessments"
	SectionAttendance    = "attendance"
	SectionCurrentMonth  = "current_month"
	SectionStatistics    = "statistics"
)

// Members предоставляет участников.
type Members interface {
	GetMember(ctx context.Context, id int64) (*models.Member, error)
}

// Enrollments предоставляет записи участника.
type Enrollments interface {
	ListByMember(ctx context.Context, memberID int64) ([]*models.Enrollment, error)
}

// Plans предоставляет тарифы из каталога.
type Plans interface {
	Get(ctx context.Context, id int64) (*models.Plan, error)
}

// Payments предоставляет платежи и итоги оплаты записей.
type Payments interface {
	ListByEnrollment(ctx context.Context, enrollmentID int64) ([]*models.Payment, error)
	TotalPaid(ctx context.Context, enrollmentID int64) (decimal.Decimal, error)
}

// Attendance предоставляет отметки посещений и производные показатели.
type Attendance interface {
	ListByMember(ctx context.Context, memberID int64) ([]*models.Attendance, error)
	ListByMemberAndPeriod(ctx context.Context, memberID int64, from, to time.Time) ([]*models.Attendance, error)
	OverallRate(ctx context.Context, memberID int64) (*models.AttendanceRate, error)
	Rate(ctx context.Context, memberID int64, from, to time.Time) (*models.AttendanceRate, error)
}

// Training предоставляет тренировочные планы и физические оценки участника.
type Training interface {
	ListTrainingPlans(ctx context.Context, memberID int64) ([]*models.TrainingPlan, error)
	ListAssessments(ctx context.Context, memberID int64) ([]*models.PhysicalAssessment, error)
}

// Service собирает снимки истории участников.
type Service struct {
	members     Members
	enrollments Enrollments
	plans       Plans
	payments    Payments
	attendance  Attendance
	training    Training
	clock       clock.Clock
	tracer      trace.Tracer
	log         *slog.Logger
}

// New создаёт сборщик истории.
func New(members Members, enrollments Enrollments, plans Plans, payments Payments,
	attendance Attendance, training Training, clk clock.Clock, log *slog.Logger) *Service {
	return &Service{
		members:     members,
		enrollments: enrollments,
		plans:       plans,
		payments:    payments,
		attendance:  attendance,
		training:    training,
		clock:       clk,
		tracer:      otel.Tracer("github.com/magabrotheeeer/gym-membership/internal/services/history"),
		log:         log,
	}
}

// BuildFull собирает полную историю участника.
func (s *Service) BuildFull(ctx context.Context, memberID int64) (*models.MemberHistory, error) {
	const op = "history.BuildFull"
	h, err := s.build(ctx, memberID, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return h, nil
}

// BuildForPeriod собирает историю участника за интервал [from, to].
// Тренировочные планы, оценки, посещения и платежи ограничиваются интервалом;
// записи на абонемент возвращаются полностью.
func (s *Service) BuildForPeriod(ctx context.Context, memberID int64, from, to time.Time) (*models.MemberHistory, error) {
	const op = "history.BuildForPeriod"

	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%s: %w: start and end are required", op, apperr.ErrInvalidPeriod)
	}
	from, to = month.Day(from), month.Day(to)
	if from.After(to) {
		return nil, fmt.Errorf("%s: %w: start is after end", op, apperr.ErrInvalidPeriod)
	}
	if to.After(month.Day(s.clock.Now())) {
		return nil, fmt.Errorf("%s: %w: end is in the future", op, apperr.ErrInvalidPeriod)
	}

	h, err := s.build(ctx, memberID, &models.HistoryPeriod{Start: from, End: to})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return h, nil
}

// sections — сырые данные разделов, прочитанные параллельно.
type sections struct {
	enrollments  []models.EnrollmentSummary
	payments     []models.Payment
	plans        []*models.TrainingPlan
	assessments  []*models.PhysicalAssessment
	attendance   []*models.Attendance
	currentMonth []*models.Attendance
	rate         *models.AttendanceRate
}

func (s *Service) build(ctx context.Context, memberID int64, period *models.HistoryPeriod) (*models.MemberHistory, error) {
	ctx, span := s.tracer.Start(ctx, "history.build", trace.WithAttributes(
		attribute.Int64("member_id", memberID),
		attribute.Bool("period", period != nil),
	))
	defer span.End()

	now := s.clock.Now()
	today := month.Day(now)

	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, apperr.Aggregation(SectionMember, err)
	}

	var data sections
	g, gctx := errgroup.WithContext(ctx)
	run := func(section string, fn func(ctx context.Context) error) {
		g.Go(func() error {
			ctx, span := s.tracer.Start(gctx, "history."+section)
			defer span.End()
			if err := fn(ctx); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return apperr.Aggregation(section, err)
			}
			return nil
		})
	}

	run(SectionEnrollments, func(ctx context.Context) (err error) {
		data.enrollments, data.payments, err = s.readEnrollments(ctx, memberID)
		return err
	})
	run(SectionTrainingPlans, func(ctx context.Context) (err error) {
		data.plans, err = s.training.ListTrainingPlans(ctx, memberID)
		return err
	})
	run(SectionAssessments, func(ctx context.Context) (err error) {
		data.assessments, err = s.training.ListAssessments(ctx, memberID)
		return err
	})
	run(SectionAttendance, func(ctx context.Context) (err error) {
		if period != nil {
			data.attendance, err = s.attendance.ListByMemberAndPeriod(ctx, memberID, period.Start, period.End)
		} else {
			data.attendance, err = s.attendance.ListByMember(ctx, memberID)
		}
		return err
	})
	run(SectionCurrentMonth, func(ctx context.Context) (err error) {
		data.currentMonth, err = s.attendance.ListByMemberAndPeriod(ctx, memberID, month.FirstDay(today), month.LastDay(today))
		return err
	})
	run(SectionStatistics, func(ctx context.Context) (err error) {
		if period != nil {
			data.rate, err = s.attendance.Rate(ctx, memberID, period.Start, period.End)
		} else {
			data.rate, err = s.attendance.OverallRate(ctx, memberID)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Error("failed to build member history", slog.Int64("member_id", memberID), sl.Err(err))
		return nil, err
	}

	h := assemble(*member, data, period, today)
	h.GeneratedAt = now.UTC()
	return h, nil
}

// readEnrollments читает записи участника вместе с данными тарифа, итогом
// оплаты и платежами по каждой записи.
func (s *Service) readEnrollments(ctx context.Context, memberID int64) ([]models.EnrollmentSummary, []models.Payment, error) {
	list, err := s.enrollments.ListByMember(ctx, memberID)
	if err != nil {
		return nil, nil, err
	}

	plans := make(map[int64]*models.Plan)
	summaries := make([]models.EnrollmentSummary, 0, len(list))
	payments := make([]models.Payment, 0)
	for _, e := range list {
		plan, ok := plans[e.PlanID]
		if !ok {
			if plan, err = s.plans.Get(ctx, e.PlanID); err != nil {
				return nil, nil, err
			}
			plans[e.PlanID] = plan
		}
		total, err := s.payments.TotalPaid(ctx, e.ID)
		if err != nil {
			return nil, nil, err
		}
		paid, err := s.payments.ListByEnrollment(ctx, e.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range paid {
			payments = append(payments, *p)
		}

		summaries = append(summaries, models.EnrollmentSummary{
			Enrollment: *e,
			PlanName:   plan.Name,
			PlanPrice:  plan.Price,
			TotalPaid:  total,
			PaidUp:     total.GreaterThanOrEqual(plan.Price),
		})
	}
	return summaries, payments, nil
}

// assemble сортирует разделы, ограничивает их периодом и вычисляет статистику.
func assemble(member models.Member, data sections, period *models.HistoryPeriod, today time.Time) *models.MemberHistory {
	h := &models.MemberHistory{
		Member:      member,
		Period:      period,
		Enrollments: data.enrollments,
	}

	slices.SortStableFunc(h.Enrollments, func(a, b models.EnrollmentSummary) int {
		return b.StartDate.Compare(a.StartDate)
	})
	for i := range h.Enrollments {
		if h.Enrollments[i].IsCurrent(today) {
			current := h.Enrollments[i]
			h.CurrentEnrollment = &current
			break
		}
	}

	h.TrainingPlans = make([]models.TrainingPlanSummary, 0, len(data.plans))
	for _, tp := range data.plans {
		summary := models.TrainingPlanSummary{TrainingPlan: *tp}
		if tp.DurationWeeks != nil {
			end := tp.CreatedAt.AddDate(0, 0, 7*(*tp.DurationWeeks))
			summary.EndDate = &end
		}
		if period != nil && !overlaps(summary, *period) {
			continue
		}
		h.TrainingPlans = append(h.TrainingPlans, summary)
	}
	slices.SortStableFunc(h.TrainingPlans, func(a, b models.TrainingPlanSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	for i := range h.TrainingPlans {
		if containsDay(h.TrainingPlans[i], today) {
			current := h.TrainingPlans[i]
			h.CurrentTrainingPlan = &current
			break
		}
	}

	h.Assessments = make([]models.PhysicalAssessment, 0, len(data.assessments))
	for _, a := range data.assessments {
		if period != nil && !inPeriod(a.Date, *period) {
			continue
		}
		h.Assessments = append(h.Assessments, *a)
	}
	slices.SortStableFunc(h.Assessments, func(a, b models.PhysicalAssessment) int {
		return b.Date.Compare(a.Date)
	})
	if len(h.Assessments) > 0 {
		latest := h.Assessments[0]
		h.LatestAssessment = &latest
	}

	h.Attendance = groupByMonth(data.attendance)
	h.CurrentMonth = models.MonthlyAttendance{Month: month.Key(today)}
	if groups := groupByMonth(data.currentMonth); len(groups) > 0 {
		h.CurrentMonth = groups[0]
	}

	h.Payments = make([]models.Payment, 0, len(data.payments))
	for _, p := range data.payments {
		if period != nil && !inPeriod(p.PaymentDate, *period) {
			continue
		}
		h.Payments = append(h.Payments, p)
	}
	slices.SortStableFunc(h.Payments, func(a, b models.Payment) int {
		if c := b.PaymentDate.Compare(a.PaymentDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if len(h.Payments) > 0 {
		latest := h.Payments[0]
		h.LatestPayment = &latest
	}

	h.Statistics = models.HistoryStatistics{
		TotalEnrollments:   len(h.Enrollments),
		TotalTrainingPlans: len(h.TrainingPlans),
		TotalAssessments:   len(h.Assessments),
		DaysAsMember:       daysAsMember(h.Enrollments, today),
	}
	if data.rate != nil {
		h.Statistics.TotalPresences = data.rate.Presents
		h.Statistics.AttendanceRate = data.rate.Rate
	}
	return h
}

// groupByMonth группирует отметки по календарным месяцам, новые месяцы первыми.
func groupByMonth(records []*models.Attendance) []models.MonthlyAttendance {
	byKey := make(map[string]*models.MonthlyAttendance)
	for _, r := range records {
		key := month.Key(r.Date)
		g, ok := byKey[key]
		if !ok {
			g = &models.MonthlyAttendance{Month: key}
			byKey[key] = g
		}
		g.Days++
		if r.Present {
			g.Presences++
		} else {
			g.Absences++
		}
	}

	groups := make([]models.MonthlyAttendance, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	slices.SortFunc(groups, func(a, b models.MonthlyAttendance) int {
		return cmp.Compare(b.Month, a.Month)
	})
	return groups
}

func daysAsMember(enrollments []models.EnrollmentSummary, today time.Time) int {
	if len(enrollments) == 0 {
		return 0
	}
	earliest := enrollments[0].StartDate
	for _, e := range enrollments[1:] {
		if e.StartDate.Before(earliest) {
			earliest = e.StartDate
		}
	}
	return max(month.DaysBetween(earliest, today), 0)
}

// containsDay сообщает, попадает ли day в окно плана. План без
// длительности считается бессрочным.
func containsDay(tp models.TrainingPlanSummary, day time.Time) bool {
	if tp.CreatedAt.After(day) {
		return false
	}
	return tp.EndDate == nil || !tp.EndDate.Before(day)
}

func overlaps(tp models.TrainingPlanSummary, p models.HistoryPeriod) bool {
	if tp.CreatedAt.After(p.End) {
		return false
	}
	return tp.EndDate == nil || !tp.EndDate.Before(p.Start)
}

func inPeriod(day time.Time, p models.HistoryPeriod) bool {
	return !day.Before(p.Start) && !day.After(p.End)
}
