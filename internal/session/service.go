package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/engine"
	"github.com/shaiso/Pathway/internal/mq"
	"github.com/shaiso/Pathway/internal/repo"
	"github.com/shaiso/Pathway/internal/telemetry"
)

const defaultCacheSize = 128

// QuestionnaireStore — чтение версий опросников.
type QuestionnaireStore interface {
	GetVersion(ctx context.Context, questionnaireID uuid.UUID, version int) (*domain.QuestionnaireVersion, error)
	GetLatestVersion(ctx context.Context, questionnaireID uuid.UUID) (*domain.QuestionnaireVersion, error)
}

// SessionStore — хранилище сессий.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	Update(ctx context.Context, s *domain.Session) error
}

// AnswerStore — хранилище ответов.
type AnswerStore interface {
	Append(ctx context.Context, sessionID uuid.UUID, stepID string, values []domain.AnswerValue) ([]domain.Answer, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Answer, error)
}

// EventPublisher — публикация событий сессий. Реализуется mq.Publisher.
type EventPublisher interface {
	PublishSessionStarted(ctx context.Context, payload mq.SessionPayload) error
	PublishAnswerRecorded(ctx context.Context, payload mq.AnswerRecordedPayload) error
	PublishSessionMoved(ctx context.Context, payload mq.SessionMovedPayload) error
	PublishSessionCompleted(ctx context.Context, payload mq.SessionPayload) error
	PublishSessionAbandoned(ctx context.Context, payload mq.SessionPayload) error
}

// Config — конфигурация Service.
type Config struct {
	Questionnaires QuestionnaireStore
	Sessions       SessionStore
	Answers        AnswerStore

	// Publisher — опционально; без него события не публикуются.
	Publisher EventPublisher

	// CacheSize — число скомпилированных версий в LRU (default: 128).
	CacheSize int

	Logger *slog.Logger
}

// Service ведёт сессии прохождения опросников.
type Service struct {
	questionnaires QuestionnaireStore
	sessions       SessionStore
	answers        AnswerStore
	publisher      EventPublisher

	cache  *lru.Cache[taskKey, *Compiled]
	logger *slog.Logger
}

// taskKey — ключ кэша скомпилированных версий.
type taskKey struct {
	questionnaireID uuid.UUID
	version         int
}

// View — сессия вместе с текущим шагом.
type View struct {
	Session *domain.Session

	// Step — текущий шаг; nil, если сессия завершена.
	Step *domain.ConditionalStep

	// Text — текст шага с подставленными ответами.
	Text string

	// Position и Total — номер текущего шага среди видимых и их число.
	Position int
	Total    int
}

// New создаёт Service.
func New(cfg Config) (*Service, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}

	cache, err := lru.New[taskKey, *Compiled](size)
	if err != nil {
		return nil, fmt.Errorf("create task cache: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		questionnaires: cfg.Questionnaires,
		sessions:       cfg.Sessions,
		answers:        cfg.Answers,
		publisher:      cfg.Publisher,
		cache:          cache,
		logger:         logger,
	}, nil
}

// Start создаёт сессию по версии опросника и ставит её на первый видимый шаг.
// version <= 0 означает последнюю версию.
func (s *Service) Start(ctx context.Context, questionnaireID uuid.UUID, version int) (*View, error) {
	qv, err := s.loadVersion(ctx, questionnaireID, version)
	if err != nil {
		return nil, err
	}

	compiled, err := s.compiled(qv)
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{
		ID:              uuid.New(),
		QuestionnaireID: qv.QuestionnaireID,
		Version:         qv.Version,
		CreatedAt:       time.Now(),
	}
	sess.MarkStarted()

	store := engine.MapStore{}
	first, ok := compiled.Navigator.NextStep(engine.Start, store)
	if ok {
		sess.MoveTo(first.ID)
	} else {
		sess.MarkCompleted()
	}
	recordNavigation("next", ok, compiled.Task, -1, first)

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger := telemetry.WithSessionID(s.logger, sess.ID.String())
	logger.Info("session started",
		"questionnaire_id", sess.QuestionnaireID,
		"version", sess.Version,
		"step", sess.CurrentStep,
	)

	s.publish(ctx, func(p EventPublisher) error {
		return p.PublishSessionStarted(ctx, sessionPayload(sess))
	})
	if sess.IsFinished() {
		s.complete(ctx, sess)
	}

	return s.view(sess, compiled, store), nil
}

// Current возвращает сессию и её текущий шаг.
func (s *Service) Current(ctx context.Context, sessionID uuid.UUID) (*View, error) {
	sess, compiled, store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess, compiled, store), nil
}

// Answer записывает ответ на шаг stepID.
//
// Шаг должен быть видим при уже записанных ответах. Позиция сессии
// не меняется: переход выполняет Next.
func (s *Service) Answer(ctx context.Context, sessionID uuid.UUID, stepID string, values []domain.AnswerValue) (*View, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	for _, v := range values {
		if !v.IsValid() {
			return nil, ErrInvalidValue
		}
	}

	sess, compiled, store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsFinished() {
		return nil, ErrSessionFinished
	}

	step := compiled.Task.Step(stepID)
	if step == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}
	if !engine.IsSatisfied(step, store).Visible() {
		return nil, fmt.Errorf("%w: %s", ErrStepHidden, stepID)
	}

	if _, err := s.answers.Append(ctx, sessionID, stepID, values); err != nil {
		return nil, fmt.Errorf("append answers: %w", err)
	}
	store.Record(stepID, values...)

	affected := compiled.Affected(stepID)
	telemetry.WithStepID(telemetry.WithSessionID(s.logger, sessionID.String()), stepID).
		Debug("answer recorded", "values", len(values), "affected", affected)

	s.publish(ctx, func(p EventPublisher) error {
		return p.PublishAnswerRecorded(ctx, mq.AnswerRecordedPayload{
			SessionID: sessionID,
			StepID:    stepID,
			Values:    rawValues(values),
			Affected:  affected,
		})
	})

	return s.view(sess, compiled, store), nil
}

// Next переводит сессию на следующий видимый шаг.
// Если впереди видимых шагов нет, сессия завершается.
func (s *Service) Next(ctx context.Context, sessionID uuid.UUID) (*View, error) {
	sess, compiled, store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsFinished() {
		return nil, ErrSessionFinished
	}

	from := sess.CurrentStep
	next, ok := compiled.Navigator.NextStep(from, store)
	recordNavigation("next", ok, compiled.Task, indexOf(compiled.Task, from, -1), next)

	if ok {
		sess.MoveTo(next.ID)
	} else {
		sess.MarkCompleted()
	}

	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	if ok {
		s.moved(ctx, sess, from, "next")
	} else {
		s.complete(ctx, sess)
	}

	return s.view(sess, compiled, store), nil
}

// Previous возвращает сессию на предыдущий видимый шаг.
func (s *Service) Previous(ctx context.Context, sessionID uuid.UUID) (*View, error) {
	sess, compiled, store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsFinished() {
		return nil, ErrSessionFinished
	}

	from := sess.CurrentStep
	prev, ok := compiled.Navigator.PreviousStep(from, store)
	recordNavigation("previous", ok, compiled.Task, indexOf(compiled.Task, from, compiled.Task.Len()), prev)
	if !ok {
		return nil, ErrNoPreviousStep
	}

	sess.MoveTo(prev.ID)
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	s.moved(ctx, sess, from, "previous")

	return s.view(sess, compiled, store), nil
}

// Abandon помечает сессию брошенной.
func (s *Service) Abandon(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsFinished() {
		return nil, ErrSessionFinished
	}

	sess.MarkAbandoned()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	telemetry.WithSessionID(s.logger, sess.ID.String()).Info("session abandoned")
	s.publish(ctx, func(p EventPublisher) error {
		return p.PublishSessionAbandoned(ctx, sessionPayload(sess))
	})

	return sess, nil
}

// Path возвращает шаги, видимые при текущих ответах сессии.
func (s *Service) Path(ctx context.Context, sessionID uuid.UUID) ([]*domain.ConditionalStep, error) {
	_, compiled, store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return compiled.Navigator.VisiblePath(store), nil
}

// Answers возвращает ответы сессии в порядке записи.
func (s *Service) Answers(ctx context.Context, sessionID uuid.UUID) ([]domain.Answer, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.answers.ListBySession(ctx, sessionID)
}

// --- Helpers ---

// load загружает сессию, её скомпилированную версию и снимок ответов.
func (s *Service) load(ctx context.Context, sessionID uuid.UUID) (*domain.Session, *Compiled, engine.MapStore, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}

	qv, err := s.loadVersion(ctx, sess.QuestionnaireID, sess.Version)
	if err != nil {
		return nil, nil, nil, err
	}

	compiled, err := s.compiled(qv)
	if err != nil {
		return nil, nil, nil, err
	}

	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list answers: %w", err)
	}

	return sess, compiled, repo.SnapshotOf(answers), nil
}

func (s *Service) loadVersion(ctx context.Context, questionnaireID uuid.UUID, version int) (*domain.QuestionnaireVersion, error) {
	if version <= 0 {
		return s.questionnaires.GetLatestVersion(ctx, questionnaireID)
	}
	return s.questionnaires.GetVersion(ctx, questionnaireID, version)
}

// compiled возвращает скомпилированную версию из кэша или компилирует её.
func (s *Service) compiled(qv *domain.QuestionnaireVersion) (*Compiled, error) {
	key := taskKey{questionnaireID: qv.QuestionnaireID, version: qv.Version}
	if c, ok := s.cache.Get(key); ok {
		return c, nil
	}

	logger := telemetry.WithQuestionnaireID(s.logger, qv.QuestionnaireID.String())
	c, err := Compile(qv.Definition, logger)
	if err != nil {
		return nil, err
	}
	if len(c.Findings) > 0 {
		logger.Warn("questionnaire has unreachable conditions",
			"version", qv.Version,
			"findings", len(c.Findings),
		)
	}

	s.cache.Add(key, c)
	return c, nil
}

// view собирает View и рендерит текст текущего шага.
func (s *Service) view(sess *domain.Session, compiled *Compiled, store engine.ResultStore) *View {
	v := &View{Session: sess}
	if sess.IsFinished() || sess.CurrentStep == "" {
		return v
	}

	v.Step = compiled.Task.Step(sess.CurrentStep)
	if v.Step == nil {
		return v
	}

	text, err := engine.RenderText(v.Step, store)
	if err != nil {
		telemetry.WithSessionID(s.logger, sess.ID.String()).Warn("render step text failed",
			"step", v.Step.ID,
			"error", err,
		)
		text = v.Step.Text
	}
	v.Text = text
	v.Position, v.Total = compiled.Navigator.Progress(v.Step.ID, store)

	return v
}

func (s *Service) moved(ctx context.Context, sess *domain.Session, from, direction string) {
	s.publish(ctx, func(p EventPublisher) error {
		return p.PublishSessionMoved(ctx, mq.SessionMovedPayload{
			SessionID: sess.ID,
			From:      from,
			To:        sess.CurrentStep,
			Direction: direction,
		})
	})
}

func (s *Service) complete(ctx context.Context, sess *domain.Session) {
	telemetry.SessionsCompleted.Inc()
	telemetry.WithSessionID(s.logger, sess.ID.String()).Info("session completed",
		"duration", sess.Duration(),
	)
	s.publish(ctx, func(p EventPublisher) error {
		return p.PublishSessionCompleted(ctx, sessionPayload(sess))
	})
}

// publish отправляет событие, если publisher настроен.
// Ошибка публикации логируется и не прерывает операцию: состояние уже сохранено.
func (s *Service) publish(ctx context.Context, fn func(EventPublisher) error) {
	if s.publisher == nil {
		return
	}
	if err := fn(s.publisher); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("failed to publish session event", "error", err)
	}
}

func sessionPayload(sess *domain.Session) mq.SessionPayload {
	return mq.SessionPayload{
		SessionID:       sess.ID,
		QuestionnaireID: sess.QuestionnaireID,
		Version:         sess.Version,
		StepID:          sess.CurrentStep,
	}
}

func rawValues(values []domain.AnswerValue) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}

// indexOf возвращает позицию шага или def для пустого/неизвестного ID.
func indexOf(task *domain.OrderedTask, stepID string, def int) int {
	if i, ok := task.Index(stepID); ok {
		return i
	}
	return def
}

// recordNavigation обновляет метрики навигации. Пропущенные шаги —
// позиции строго между from и найденным шагом (или границей task).
func recordNavigation(direction string, found bool, task *domain.OrderedTask, from int, to *domain.ConditionalStep) {
	result := "none"
	target := task.Len()
	if direction == "previous" {
		target = -1
	}
	if found {
		result = "step"
		target, _ = task.Index(to.ID)
	}
	telemetry.NavigationRequests.WithLabelValues(direction, result).Inc()

	skipped := target - from - 1
	if direction == "previous" {
		skipped = from - target - 1
	}
	if skipped > 0 {
		telemetry.SkippedSteps.Add(float64(skipped))
	}
}
