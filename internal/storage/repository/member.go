package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// CreateMember вставляет участника и возвращает его ID.
func (s *Storage) CreateMember(ctx context.Context, m models.Member) (int64, error) {
	const op = "storage.CreateMember"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO members (name, email, phone, joined_at)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var id int64
	if err := s.DB.QueryRowContext(ctx, query,
		m.Name, nullString(m.Email), nullString(m.Phone), m.JoinedAt).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// GetMember возвращает участника по ID.
func (s *Storage) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	const op = "storage.GetMember"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), joined_at
			  FROM members WHERE id = $1`
	var m models.Member
	if err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.JoinedAt); err != nil {
		return nil, wrapErr(op, err)
	}
	m.JoinedAt = m.JoinedAt.UTC()
	return &m, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
