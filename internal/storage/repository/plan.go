package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

const planColumns = `id, name, description, price, duration_months, status`

func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationMonths, &p.Status); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlan вставляет тариф и возвращает его ID.
func (s *Storage) CreatePlan(ctx context.Context, p models.Plan) (int64, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO plans (name, description, price, duration_months, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var id int64
	if err := s.DB.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Price, p.DurationMonths, p.Status).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// GetPlan возвращает тариф по ID.
func (s *Storage) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPlan(s.DB.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListPlans возвращает тарифы; при непустом status — только с этим статусом.
func (s *Storage) ListPlans(ctx context.Context, status models.PlanStatus) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var where whereBuilder
	if status != "" {
		where.add("status = $%d", status)
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+planColumns+` FROM plans`+where.String()+` ORDER BY id`, where.args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// UpdatePlan полностью заменяет данные тарифа.
func (s *Storage) UpdatePlan(ctx context.Context, p models.Plan) error {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE plans
			  SET name = $1, description = $2, price = $3, duration_months = $4, status = $5
			  WHERE id = $6`
	res, err := s.DB.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.DurationMonths, p.Status, p.ID)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// SetPlanStatus меняет только статус тарифа.
func (s *Storage) SetPlanStatus(ctx context.Context, id int64, status models.PlanStatus) error {
	const op = "storage.SetPlanStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE plans SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// DeletePlan удаляет тариф. Тариф, на который ссылаются записи, удалить нельзя.
func (s *Storage) DeletePlan(ctx context.Context, id int64) error {
	const op = "storage.DeletePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("%s: %w: plan is referenced by enrollments", op, apperr.ErrConflict)
		}
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}
