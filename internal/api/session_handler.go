package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/repo"
)

const (
	defaultSessionLimit = 50
	maxSessionLimit     = 500
)

// ListSessions возвращает список сессий с фильтрацией.
// GET /api/v1/sessions?questionnaire_id=...&status=...&limit=...&offset=...
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.SessionFilter{Limit: defaultSessionLimit}

	if v := q.Get("questionnaire_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			BadRequest(w, "invalid questionnaire_id")
			return
		}
		filter.QuestionnaireID = &id
	}

	if v := q.Get("status"); v != "" {
		status := domain.SessionStatus(strings.ToUpper(v))
		switch status {
		case domain.SessionStatusInProgress, domain.SessionStatusCompleted, domain.SessionStatusAbandoned:
			filter.Status = status
		default:
			BadRequest(w, "invalid status")
			return
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		filter.Limit = min(limit, maxSessionLimit)
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			BadRequest(w, "invalid offset")
			return
		}
		filter.Offset = offset
	}

	sessions, err := h.sessionRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	result := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		result[i] = SessionFromDomain(s)
	}

	List(w, result, len(result))
}

// StartSession начинает прохождение опросника.
// POST /api/v1/questionnaires/{id}/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid questionnaire id")
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	view, err := h.sessions.Start(r.Context(), id, req.Version)
	if errors.Is(err, repo.ErrNotFound) {
		NotFound(w, "questionnaire version not found")
		return
	}
	if HandleSessionError(w, h.log(r), err) {
		return
	}

	Created(w, ViewFromSession(view))
}

// GetSession возвращает сессию и её текущий шаг.
// GET /api/v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid session id")
	if !ok {
		return
	}

	view, err := h.sessions.Current(r.Context(), id)
	if HandleSessionError(w, h.log(r), err) {
		return
	}

	Success(w, ViewFromSession(view))
}

// RecordAnswer записывает ответ на шаг.
// POST /api/v1/sessions/{id}/answers
func (h *Handler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid session id")
	if !ok {
		return
	}

	var req RecordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.StepID == "" {
		BadRequest(w, "step_id is required")
		return
	}

	view, err := h.sessions.Answer(r.Context(), id, req.StepID, req.Values)
	if HandleSessionError(w, h.log(r), err) {
		return
	}

	Created(w, ViewFromSession(view))
}

// ListAnswers возвращает ответы сессии.
// GET /api/v1/sessions/{id}/answers
func (h *Handler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid session id")
	if !ok {
		return
	}

	answers, err := h.sessions.Answers(r.Context(), id)
	if HandleSessionError(w, h.log(r), err) {
		return
	}

	result := make([]AnswerResponse, len(answers))
	for i, a := range answers {
		result[i] = AnswerFromDomain(a)
	}

	List(w, result, len(result))
}

// NextStep переводит сессию на следующий видимый шаг.
// POST /api/v1/sessions/{id}/next
func (h *Handler) NextStep(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid session id")
	if !ok {
		return
	}

	view, err := h.sessions.Next(r.Context(), id)
	if HandleSessionError(w, h.log(r), err) {
		return
	}

	Success(w, ViewFromSession(view))
}

// PreviousStep возвращает сессию на предыдущий видимый шаг.
// POST /api/v1/sessions/{id}/previous
func (h *Handler) PreviousStep(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid session id")
	if !ok {
		return
	}

	view, err := h.sessions.Previous(r.Context(), id)
	if HandleSessionError(w, h.log(r), err) {
		return
	}

	Success(w, ViewFromSession(view))
}

// AbandonSession помечает сессию брошенной.
// POST /api/v1/sessions/{id}/abandon
func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid session id")
	if !ok {
		return
	}

	sess, err := h.sessions.Abandon(r.Context(), id)
	if HandleSessionError(w, h.log(r), err) {
		return
	}

	Success(w, SessionFromDomain(*sess))
}

// SessionPath возвращает шаги, видимые при текущих ответах.
// GET /api/v1/sessions/{id}/path
func (h *Handler) SessionPath(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid session id")
	if !ok {
		return
	}

	path, err := h.sessions.Path(r.Context(), id)
	if HandleSessionError(w, h.log(r), err) {
		return
	}

	result := PathFromSteps(path)
	List(w, result, len(result))
}

// SessionAudit возвращает журнал событий сессии.
// GET /api/v1/sessions/{id}/audit
func (h *Handler) SessionAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid session id")
	if !ok {
		return
	}

	entries, err := h.auditRepo.ListBySession(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "session not found") {
		return
	}

	result := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = AuditFromDomain(e)
	}

	List(w, result, len(result))
}
