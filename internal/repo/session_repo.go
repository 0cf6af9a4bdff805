package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Pathway/internal/domain"
)

// SessionRepo — репозиторий для работы с sessions.
type SessionRepo struct {
	pool *pgxpool.Pool
}

// NewSessionRepo создаёт новый SessionRepo.
func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, questionnaire_id, version, status, current_step, started_at, finished_at, created_at`

// Create создаёт новую сессию.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (id, questionnaire_id, version, status, current_step, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.QuestionnaireID,
		s.Version,
		s.Status,
		nullString(s.CurrentStep),
		s.StartedAt,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID возвращает сессию по ID.
func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.pool.QueryRow(ctx, query, id))
}

// List возвращает список сессий с фильтрацией.
func (r *SessionRepo) List(ctx context.Context, filter SessionFilter) ([]domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE ($1::uuid IS NULL OR questionnaire_id = $1)
		  AND ($2::text IS NULL OR status = $2::session_status)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.QuestionnaireID),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Update обновляет статус и позицию сессии.
func (r *SessionRepo) Update(ctx context.Context, s *domain.Session) error {
	query := `
		UPDATE sessions
		SET status = $2, current_step = $3, started_at = $4, finished_at = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Status,
		nullString(s.CurrentStep),
		s.StartedAt,
		s.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SessionFilter — параметры фильтрации sessions.
type SessionFilter struct {
	QuestionnaireID *uuid.UUID
	Status          domain.SessionStatus
	Limit           int
	Offset          int
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	var status string
	var currentStep *string

	err := row.Scan(
		&s.ID,
		&s.QuestionnaireID,
		&s.Version,
		&status,
		&currentStep,
		&s.StartedAt,
		&s.FinishedAt,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.Status = domain.ParseSessionStatus(status)
	if currentStep != nil {
		s.CurrentStep = *currentStep
	}
	return &s, nil
}
