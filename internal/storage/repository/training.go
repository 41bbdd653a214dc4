package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// ListTrainingPlans возвращает тренировочные планы участника вместе с
// упражнениями, новые по дате создания первыми.
func (s *Storage) ListTrainingPlans(ctx context.Context, memberID int64) ([]*models.TrainingPlan, error) {
	const op = "storage.ListTrainingPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, member_id, instructor_name, created_at, duration_weeks, description
			  FROM training_plans
			  WHERE member_id = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.TrainingPlan, 0)
	byID := make(map[int64]*models.TrainingPlan)
	for rows.Next() {
		var (
			tp    models.TrainingPlan
			weeks sql.NullInt32
		)
		if err := rows.Scan(&tp.ID, &tp.MemberID, &tp.InstructorName, &tp.CreatedAt,
			&weeks, &tp.Description); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tp.CreatedAt = tp.CreatedAt.UTC()
		if weeks.Valid {
			w := int(weeks.Int32)
			tp.DurationWeeks = &w
		}
		tp.Exercises = make([]models.Exercise, 0)
		result = append(result, &tp)
		byID[tp.ID] = &tp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(result) == 0 {
		return result, nil
	}

	exRows, err := s.DB.QueryContext(ctx, `SELECT x.id, x.training_plan_id, x.name, x.sets, x.reps, x.load
			  FROM exercises x
			  JOIN training_plans t ON t.id = x.training_plan_id
			  WHERE t.member_id = $1
			  ORDER BY x.id`, memberID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = exRows.Close()
	}()

	for exRows.Next() {
		var (
			ex   models.Exercise
			load sql.NullFloat64
		)
		if err := exRows.Scan(&ex.ID, &ex.TrainingPlanID, &ex.Name, &ex.Sets, &ex.Reps, &load); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if load.Valid {
			l := load.Float64
			ex.Load = &l
		}
		if tp, ok := byID[ex.TrainingPlanID]; ok {
			tp.Exercises = append(tp.Exercises, ex)
		}
	}
	if err := exRows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAssessments возвращает физические оценки участника, новые первыми.
func (s *Storage) ListAssessments(ctx context.Context, memberID int64) ([]*models.PhysicalAssessment, error) {
	const op = "storage.ListAssessments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, member_id, assessed_on, instructor_name, weight, height, body_fat, measurements
			  FROM physical_assessments
			  WHERE member_id = $1
			  ORDER BY assessed_on DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.PhysicalAssessment, 0)
	for rows.Next() {
		var a models.PhysicalAssessment
		if err := rows.Scan(&a.ID, &a.MemberID, &a.Date, &a.InstructorName,
			&a.Weight, &a.Height, &a.BodyFat, &a.Measurements); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.Date = a.Date.UTC()
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
