package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

const attendanceColumns = `id, member_id, attended_on, present`

func scanAttendance(row rowScanner) (*models.Attendance, error) {
	var a models.Attendance
	if err := row.Scan(&a.ID, &a.MemberID, &a.Date, &a.Present); err != nil {
		return nil, err
	}
	a.Date = a.Date.UTC()
	return &a, nil
}

// CreateAttendance вставляет отметку посещения. Повтор пары (участник, дата)
// возвращает ErrConflict по уникальному ограничению.
func (s *Storage) CreateAttendance(ctx context.Context, a models.Attendance) (int64, error) {
	const op = "storage.CreateAttendance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO attendance (member_id, attended_on, present)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var id int64
	if err := s.DB.QueryRowContext(ctx, query, a.MemberID, a.Date, a.Present).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// GetAttendance возвращает отметку по ID.
func (s *Storage) GetAttendance(ctx context.Context, id int64) (*models.Attendance, error) {
	const op = "storage.GetAttendance"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	a, err := scanAttendance(s.DB.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return a, nil
}

// AttendanceExists сообщает, есть ли отметка участника за день.
func (s *Storage) AttendanceExists(ctx context.Context, memberID int64, day time.Time) (bool, error) {
	const op = "storage.AttendanceExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendance WHERE member_id = $1 AND attended_on = $2)`,
		memberID, day).Scan(&exists); err != nil {
		return false, wrapErr(op, err)
	}
	return exists, nil
}

// ListAttendance возвращает отметки по фильтру, новые первыми.
func (s *Storage) ListAttendance(ctx context.Context, f models.AttendanceFilter) ([]*models.Attendance, error) {
	const op = "storage.ListAttendance"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := attendanceWhere(f)
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance`+where.String()+` ORDER BY attended_on DESC, id DESC`,
		where.args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Attendance, 0)
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AttendanceStats считает отметки и присутствия по фильтру.
func (s *Storage) AttendanceStats(ctx context.Context, f models.AttendanceFilter) (models.AttendanceStats, error) {
	const op = "storage.AttendanceStats"
	select {
	case <-ctx.Done():
		return models.AttendanceStats{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := attendanceWhere(f)
	var stats models.AttendanceStats
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE present) FROM attendance`+where.String(),
		where.args...).Scan(&stats.Total, &stats.Presents); err != nil {
		return models.AttendanceStats{}, wrapErr(op, err)
	}
	return stats, nil
}

// UpdateAttendance полностью заменяет данные отметки.
func (s *Storage) UpdateAttendance(ctx context.Context, a models.Attendance) error {
	const op = "storage.UpdateAttendance"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE attendance SET member_id = $1, attended_on = $2, present = $3 WHERE id = $4`,
		a.MemberID, a.Date, a.Present, a.ID)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// DeleteAttendance удаляет отметку.
func (s *Storage) DeleteAttendance(ctx context.Context, id int64) error {
	const op = "storage.DeleteAttendance"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

func attendanceWhere(f models.AttendanceFilter) *whereBuilder {
	where := &whereBuilder{}
	if f.MemberID != 0 {
		where.add("member_id = $%d", f.MemberID)
	}
	if f.From != nil {
		where.add("attended_on >= $%d", *f.From)
	}
	if f.To != nil {
		where.add("attended_on <= $%d", *f.To)
	}
	return where
}
