package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

const enrollmentColumns = `id, member_id, plan_id, start_date, end_date, status`

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := row.Scan(&e.ID, &e.MemberID, &e.PlanID, &e.StartDate, &e.EndDate, &e.Status); err != nil {
		return nil, err
	}
	e.StartDate = e.StartDate.UTC()
	e.EndDate = e.EndDate.UTC()
	return &e, nil
}

const insertEnrollment = `INSERT INTO enrollments (member_id, plan_id, start_date, end_date, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`

// CreateEnrollment вставляет запись без проверки других активных записей участника.
func (s *Storage) CreateEnrollment(ctx context.Context, e models.Enrollment) (int64, error) {
	const op = "storage.CreateEnrollment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id int64
	if err := s.DB.QueryRowContext(ctx, insertEnrollment,
		e.MemberID, e.PlanID, e.StartDate, e.EndDate, e.Status).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// CreateEnrollmentExclusive вставляет запись, если у участника нет другой
// активной записи. Проверка и вставка выполняются в одной транзакции под
// advisory-блокировкой по ID участника, поэтому параллельные вызовы для
// одного участника не могут создать две активные записи.
func (s *Storage) CreateEnrollmentExclusive(ctx context.Context, e models.Enrollment) (int64, error) {
	const op = "storage.CreateEnrollmentExclusive"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, e.MemberID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE member_id = $1 AND status = $2)`,
		e.MemberID, models.EnrollmentActive).Scan(&exists); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return 0, fmt.Errorf("%s: %w", op, apperr.ErrDuplicateActive)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, insertEnrollment,
		e.MemberID, e.PlanID, e.StartDate, e.EndDate, e.Status).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetEnrollment возвращает запись по ID.
func (s *Storage) GetEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	const op = "storage.GetEnrollment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	e, err := scanEnrollment(s.DB.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return e, nil
}

// ListEnrollments возвращает записи по фильтру, новые по дате начала первыми.
func (s *Storage) ListEnrollments(ctx context.Context, f models.EnrollmentFilter) ([]*models.Enrollment, error) {
	const op = "storage.ListEnrollments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var where whereBuilder
	if f.MemberID != 0 {
		where.add("member_id = $%d", f.MemberID)
	}
	if f.PlanID != 0 {
		where.add("plan_id = $%d", f.PlanID)
	}
	if f.Status != "" {
		where.add("status = $%d", f.Status)
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments`+where.String()+` ORDER BY start_date DESC, id DESC`,
		where.args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return collectEnrollments(op, rows)
}

// ActiveEnrollmentForMember возвращает активную запись участника с самой
// поздней датой начала или ErrNotFound.
func (s *Storage) ActiveEnrollmentForMember(ctx context.Context, memberID int64) (*models.Enrollment, error) {
	const op = "storage.ActiveEnrollmentForMember"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + enrollmentColumns + `
			  FROM enrollments
			  WHERE member_id = $1 AND status = $2
			  ORDER BY start_date DESC, id DESC
			  LIMIT 1`
	e, err := scanEnrollment(s.DB.QueryRowContext(ctx, query, memberID, models.EnrollmentActive))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return e, nil
}

// UpdateEnrollment заменяет участника, тариф и даты записи. Статус не меняется.
func (s *Storage) UpdateEnrollment(ctx context.Context, e models.Enrollment) error {
	const op = "storage.UpdateEnrollment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE enrollments
			  SET member_id = $1, plan_id = $2, start_date = $3, end_date = $4
			  WHERE id = $5`
	res, err := s.DB.ExecContext(ctx, query, e.MemberID, e.PlanID, e.StartDate, e.EndDate, e.ID)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// SetEnrollmentStatus меняет только статус записи.
func (s *Storage) SetEnrollmentStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error {
	const op = "storage.SetEnrollmentStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE enrollments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// FindEnrollmentsExpiringOn находит активные записи, заканчивающиеся в день day,
// у участников с указанной почтой.
func (s *Storage) FindEnrollmentsExpiringOn(ctx context.Context, day time.Time) ([]*models.EnrollmentExpiring, error) {
	const op = "storage.FindEnrollmentsExpiringOn"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT e.id, m.name, m.email, p.name, e.end_date
			  FROM enrollments e
			  JOIN members m ON m.id = e.member_id
			  JOIN plans p ON p.id = e.plan_id
			  WHERE e.status = $1
			    AND e.end_date = $2
			    AND m.email IS NOT NULL`
	rows, err := s.DB.QueryContext(ctx, query, models.EnrollmentActive, day)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.EnrollmentExpiring
	for rows.Next() {
		var item models.EnrollmentExpiring
		if err := rows.Scan(&item.EnrollmentID, &item.MemberName, &item.Email,
			&item.PlanName, &item.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func collectEnrollments(op string, rows *sql.Rows) ([]*models.Enrollment, error) {
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
