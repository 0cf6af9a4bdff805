package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Pathway/internal/domain"
)

// AuditRepo — репозиторий журнала событий сессий.
type AuditRepo struct {
	pool *pgxpool.Pool
}

// NewAuditRepo создаёт новый AuditRepo.
func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Insert записывает событие. Повторная доставка того же сообщения
// (тот же ID) игнорируется.
func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	payloadJSON, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO audit_log (id, session_id, event, step_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.pool.Exec(ctx, query,
		e.ID,
		e.SessionID,
		e.Event,
		nullString(e.StepID),
		payloadJSON,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListBySession возвращает события сессии в хронологическом порядке.
func (r *AuditRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, session_id, event, step_id, payload, created_at
		FROM audit_log
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var stepID *string
		var payloadJSON []byte
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Event, &stepID, &payloadJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if stepID != nil {
			e.StepID = *stepID
		}
		if payloadJSON != nil {
			if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
