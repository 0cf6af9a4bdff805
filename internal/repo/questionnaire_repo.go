package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Pathway/internal/domain"
)

// QuestionnaireRepo — репозиторий для работы с questionnaires и questionnaire_versions.
type QuestionnaireRepo struct {
	pool *pgxpool.Pool
}

// NewQuestionnaireRepo создаёт новый QuestionnaireRepo.
func NewQuestionnaireRepo(pool *pgxpool.Pool) *QuestionnaireRepo {
	return &QuestionnaireRepo{pool: pool}
}

// --- Questionnaire CRUD ---

// Create создаёт новый опросник.
func (r *QuestionnaireRepo) Create(ctx context.Context, q *domain.Questionnaire) error {
	query := `
		INSERT INTO questionnaires (id, name, title, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, q.ID, q.Name, nullString(q.Title), q.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("questionnaire %s: %w", q.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert questionnaire: %w", err)
	}
	return nil
}

// GetByID возвращает опросник по ID.
func (r *QuestionnaireRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Questionnaire, error) {
	query := `
		SELECT id, name, title, created_at
		FROM questionnaires
		WHERE id = $1
	`
	return scanQuestionnaire(r.pool.QueryRow(ctx, query, id))
}

// GetByName возвращает опросник по имени.
func (r *QuestionnaireRepo) GetByName(ctx context.Context, name string) (*domain.Questionnaire, error) {
	query := `
		SELECT id, name, title, created_at
		FROM questionnaires
		WHERE name = $1
	`
	return scanQuestionnaire(r.pool.QueryRow(ctx, query, name))
}

// List возвращает список всех опросников.
func (r *QuestionnaireRepo) List(ctx context.Context) ([]domain.Questionnaire, error) {
	query := `
		SELECT id, name, title, created_at
		FROM questionnaires
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list questionnaires: %w", err)
	}
	defer rows.Close()

	var list []domain.Questionnaire
	for rows.Next() {
		q, err := scanQuestionnaire(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

// Delete удаляет опросник (каскадно удалит versions и sessions).
func (r *QuestionnaireRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM questionnaires WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete questionnaire: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanQuestionnaire сканирует строку в Questionnaire.
// pgx.Rows тоже реализует pgx.Row, поэтому функция подходит для обоих случаев.
func scanQuestionnaire(row pgx.Row) (*domain.Questionnaire, error) {
	var q domain.Questionnaire
	var title *string

	err := row.Scan(&q.ID, &q.Name, &title, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan questionnaire: %w", err)
	}
	if title != nil {
		q.Title = *title
	}
	return &q, nil
}

// --- QuestionnaireVersion CRUD ---

// CreateVersion сохраняет новую версию определения опросника.
// Номер версии инкрементируется автоматически.
func (r *QuestionnaireRepo) CreateVersion(ctx context.Context, questionnaireID uuid.UUID, definition json.RawMessage) (*domain.QuestionnaireVersion, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем опросник, чтобы параллельные вызовы не получили один номер
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM questionnaires WHERE id = $1 FOR UPDATE`, questionnaireID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock questionnaire: %w", err)
	}

	var nextVersion int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM questionnaire_versions
		WHERE questionnaire_id = $1
	`, questionnaireID).Scan(&nextVersion)
	if err != nil {
		return nil, fmt.Errorf("get next version: %w", err)
	}

	var v domain.QuestionnaireVersion
	var stored []byte
	err = tx.QueryRow(ctx, `
		INSERT INTO questionnaire_versions (questionnaire_id, version, definition, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING questionnaire_id, version, definition, created_at
	`, questionnaireID, nextVersion, []byte(definition)).Scan(
		&v.QuestionnaireID,
		&v.Version,
		&stored,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert questionnaire version: %w", err)
	}
	v.Definition = json.RawMessage(stored)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &v, nil
}

// GetVersion возвращает конкретную версию опросника.
func (r *QuestionnaireRepo) GetVersion(ctx context.Context, questionnaireID uuid.UUID, version int) (*domain.QuestionnaireVersion, error) {
	query := `
		SELECT questionnaire_id, version, definition, created_at
		FROM questionnaire_versions
		WHERE questionnaire_id = $1 AND version = $2
	`
	return scanVersion(r.pool.QueryRow(ctx, query, questionnaireID, version))
}

// GetLatestVersion возвращает последнюю версию опросника.
func (r *QuestionnaireRepo) GetLatestVersion(ctx context.Context, questionnaireID uuid.UUID) (*domain.QuestionnaireVersion, error) {
	query := `
		SELECT questionnaire_id, version, definition, created_at
		FROM questionnaire_versions
		WHERE questionnaire_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	return scanVersion(r.pool.QueryRow(ctx, query, questionnaireID))
}

// ListVersions возвращает все версии опросника, новые первыми.
func (r *QuestionnaireRepo) ListVersions(ctx context.Context, questionnaireID uuid.UUID) ([]domain.QuestionnaireVersion, error) {
	query := `
		SELECT questionnaire_id, version, definition, created_at
		FROM questionnaire_versions
		WHERE questionnaire_id = $1
		ORDER BY version DESC
	`
	rows, err := r.pool.Query(ctx, query, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("list questionnaire versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.QuestionnaireVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

func scanVersion(row pgx.Row) (*domain.QuestionnaireVersion, error) {
	var v domain.QuestionnaireVersion
	var definition []byte

	err := row.Scan(&v.QuestionnaireID, &v.Version, &definition, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan questionnaire version: %w", err)
	}
	v.Definition = json.RawMessage(definition)
	return &v, nil
}
