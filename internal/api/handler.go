package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/repo"
	"github.com/shaiso/Pathway/internal/session"
	"github.com/shaiso/Pathway/internal/telemetry"
)

// QuestionnaireRepo — операции с опросниками, которые нужны API.
type QuestionnaireRepo interface {
	Create(ctx context.Context, q *domain.Questionnaire) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Questionnaire, error)
	List(ctx context.Context) ([]domain.Questionnaire, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateVersion(ctx context.Context, questionnaireID uuid.UUID, definition json.RawMessage) (*domain.QuestionnaireVersion, error)
	GetVersion(ctx context.Context, questionnaireID uuid.UUID, version int) (*domain.QuestionnaireVersion, error)
	ListVersions(ctx context.Context, questionnaireID uuid.UUID) ([]domain.QuestionnaireVersion, error)
	GetByName(ctx context.Context, name string) (*domain.Questionnaire, error)
}

// SessionRepo — выборка сессий для списков.
type SessionRepo interface {
	List(ctx context.Context, filter repo.SessionFilter) ([]domain.Session, error)
}

// AuditRepo — чтение журнала событий сессий.
type AuditRepo interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AuditEntry, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	questionnaires QuestionnaireRepo
	sessionRepo    SessionRepo
	auditRepo      AuditRepo
	sessions       *session.Service
	logger         *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	QuestionnaireRepo QuestionnaireRepo
	SessionRepo       SessionRepo
	AuditRepo         AuditRepo
	Sessions          *session.Service
	Logger            *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		questionnaires: cfg.QuestionnaireRepo,
		sessionRepo:    cfg.SessionRepo,
		auditRepo:      cfg.AuditRepo,
		sessions:       cfg.Sessions,
		logger:         logger,
	}
}

// log возвращает логгер запроса, который кладёт в контекст Logging.
func (h *Handler) log(r *http.Request) *slog.Logger {
	return telemetry.FromContext(r.Context())
}
