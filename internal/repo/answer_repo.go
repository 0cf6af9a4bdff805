package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/engine"
)

// AnswerRepo — репозиторий для работы с answers.
//
// Ответы только добавляются: повторный ответ на шаг не заменяет
// предыдущий, а дописывается после него.
type AnswerRepo struct {
	pool *pgxpool.Pool
}

// NewAnswerRepo создаёт новый AnswerRepo.
func NewAnswerRepo(pool *pgxpool.Pool) *AnswerRepo {
	return &AnswerRepo{pool: pool}
}

// Append записывает ответы на шаг одной транзакцией.
// Position продолжает нумерацию ответов сессии.
func (r *AnswerRepo) Append(ctx context.Context, sessionID uuid.UUID, stepID string, values []domain.AnswerValue) ([]domain.Answer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокировка сессии упорядочивает параллельные Append
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	var position int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(position), 0)
		FROM answers
		WHERE session_id = $1
	`, sessionID).Scan(&position)
	if err != nil {
		return nil, fmt.Errorf("get last position: %w", err)
	}

	now := time.Now()
	answers := make([]domain.Answer, 0, len(values))

	for _, v := range values {
		position++
		valueJSON, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal answer: %w", err)
		}

		a := domain.Answer{
			ID:         uuid.New(),
			SessionID:  sessionID,
			StepID:     stepID,
			Value:      v,
			Position:   position,
			RecordedAt: now,
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO answers (id, session_id, step_id, value, position, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, a.ID, a.SessionID, a.StepID, valueJSON, a.Position, a.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("insert answer: %w", err)
		}
		answers = append(answers, a)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return answers, nil
}

// ListBySession возвращает все ответы сессии в порядке записи.
func (r *AnswerRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Answer, error) {
	query := `
		SELECT id, session_id, step_id, value, position, recorded_at
		FROM answers
		WHERE session_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers by session: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		var valueJSON []byte
		if err := rows.Scan(&a.ID, &a.SessionID, &a.StepID, &valueJSON, &a.Position, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if err := json.Unmarshal(valueJSON, &a.Value); err != nil {
			return nil, fmt.Errorf("unmarshal answer %s: %w", a.ID, err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// SnapshotOf группирует ответы по шагам, сохраняя порядок записи.
func SnapshotOf(answers []domain.Answer) engine.MapStore {
	store := make(engine.MapStore)
	for _, a := range answers {
		store.Record(a.StepID, a.Value)
	}
	return store
}
