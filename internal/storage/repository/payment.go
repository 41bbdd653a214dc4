package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

const paymentColumns = `p.id, p.enrollment_id, p.payment_date, p.amount, p.method`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	if err := row.Scan(&p.ID, &p.EnrollmentID, &p.PaymentDate, &p.Amount, &p.Method); err != nil {
		return nil, err
	}
	p.PaymentDate = p.PaymentDate.UTC()
	return &p, nil
}

// CreatePayment вставляет платёж и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int64, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (enrollment_id, payment_date, amount, method)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var id int64
	if err := s.DB.QueryRowContext(ctx, query,
		p.EnrollmentID, p.PaymentDate, p.Amount, p.Method).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// GetPayment возвращает платёж по ID.
func (s *Storage) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPayment(s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE p.id = $1`, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListPayments возвращает платежи по фильтру, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, f models.PaymentFilter) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	from := ` FROM payments p`
	var where whereBuilder
	if f.EnrollmentID != 0 {
		where.add("p.enrollment_id = $%d", f.EnrollmentID)
	}
	if f.MemberID != 0 {
		from += ` JOIN enrollments e ON e.id = p.enrollment_id`
		where.add("e.member_id = $%d", f.MemberID)
	}
	if f.From != nil {
		where.add("p.payment_date >= $%d", *f.From)
	}
	if f.To != nil {
		where.add("p.payment_date <= $%d", *f.To)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+paymentColumns+from+where.String()+` ORDER BY p.payment_date DESC, p.id DESC`,
		where.args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumPayments возвращает сумму платежей по записи; ноль, если платежей нет.
func (s *Storage) SumPayments(ctx context.Context, enrollmentID int64) (decimal.Decimal, error) {
	const op = "storage.SumPayments"
	select {
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total decimal.Decimal
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE enrollment_id = $1`,
		enrollmentID).Scan(&total); err != nil {
		return decimal.Zero, wrapErr(op, err)
	}
	return total, nil
}

// UpdatePayment полностью заменяет данные платежа.
func (s *Storage) UpdatePayment(ctx context.Context, p models.Payment) error {
	const op = "storage.UpdatePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET enrollment_id = $1, payment_date = $2, amount = $3, method = $4
			  WHERE id = $5`
	res, err := s.DB.ExecContext(ctx, query, p.EnrollmentID, p.PaymentDate, p.Amount, p.Method, p.ID)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// DeletePayment удаляет платёж.
func (s *Storage) DeletePayment(ctx context.Context, id int64) error {
	const op = "storage.DeletePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}
