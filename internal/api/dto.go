package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/session"
)

// Questionnaire DTOs

// CreateQuestionnaireRequest — запрос на создание опросника.
type CreateQuestionnaireRequest struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// QuestionnaireResponse — ответ с опросником.
type QuestionnaireResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionnaireFromDomain конвертирует domain.Questionnaire в QuestionnaireResponse.
func QuestionnaireFromDomain(q domain.Questionnaire) QuestionnaireResponse {
	return QuestionnaireResponse{
		ID:        q.ID,
		Name:      q.Name,
		Title:     q.Title,
		CreatedAt: q.CreatedAt,
	}
}

// QuestionnaireVersion DTOs

// VersionResponse — ответ с версией опросника.
type VersionResponse struct {
	QuestionnaireID uuid.UUID       `json:"questionnaire_id"`
	Version         int             `json:"version"`
	Definition      json.RawMessage `json:"definition,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`

	// Steps и Warnings заполняются при создании версии.
	Steps    int      `json:"steps,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// VersionFromDomain конвертирует domain.QuestionnaireVersion в VersionResponse.
func VersionFromDomain(v domain.QuestionnaireVersion) VersionResponse {
	return VersionResponse{
		QuestionnaireID: v.QuestionnaireID,
		Version:         v.Version,
		Definition:      v.Definition,
		CreatedAt:       v.CreatedAt,
	}
}

// ValidationResponse — результат проверки определения опросника.
type ValidationResponse struct {
	Valid    bool             `json:"valid"`
	Steps    []StepResponse   `json:"steps"`
	Findings []FindingPayload `json:"findings,omitempty"`
	Skipped  []string         `json:"skipped,omitempty"`
}

// FindingPayload — одна находка анализа условий.
type FindingPayload struct {
	StepID  string `json:"step_id,omitempty"`
	Message string `json:"message"`
}

// ValidationFromCompiled собирает ValidationResponse.
func ValidationFromCompiled(c *session.Compiled) ValidationResponse {
	resp := ValidationResponse{
		Valid: len(c.Findings) == 0,
		Steps: make([]StepResponse, 0, c.Task.Len()),
	}
	for i := 0; i < c.Task.Len(); i++ {
		resp.Steps = append(resp.Steps, StepFromDomain(c.Task.At(i), ""))
	}
	for _, f := range c.Findings {
		resp.Findings = append(resp.Findings, FindingPayload{StepID: f.StepID, Message: f.Message})
	}
	resp.Skipped = errorStrings(c.Skipped)
	return resp
}

// warnings объединяет находки анализа и ошибки извлечения условий.
func warnings(c *session.Compiled) []string {
	out := errorStrings(c.Skipped)
	for _, f := range c.Findings {
		out = append(out, f.Error())
	}
	return out
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

// Step DTOs

// StepResponse — шаг опросника.
type StepResponse struct {
	ID           string               `json:"id"`
	Text         string               `json:"text,omitempty"`
	Requirements []domain.Requirement `json:"requirements,omitempty"`
}

// StepFromDomain конвертирует шаг. Непустой text заменяет исходный текст шага.
func StepFromDomain(step *domain.ConditionalStep, text string) StepResponse {
	if text == "" {
		text = step.Text
	}
	return StepResponse{
		ID:           step.ID,
		Text:         text,
		Requirements: step.Requirements,
	}
}

// Session DTOs

// StartSessionRequest — запрос на начало сессии.
type StartSessionRequest struct {
	// Version — версия опросника; 0 или отсутствие — последняя.
	Version int `json:"version,omitempty"`
}

// RecordAnswerRequest — запрос на запись ответа.
type RecordAnswerRequest struct {
	StepID string               `json:"step_id"`
	Values []domain.AnswerValue `json:"values"`
}

// SessionResponse — ответ с сессией.
type SessionResponse struct {
	ID              uuid.UUID  `json:"id"`
	QuestionnaireID uuid.UUID  `json:"questionnaire_id"`
	Version         int        `json:"version"`
	Status          string     `json:"status"`
	CurrentStep     string     `json:"current_step,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SessionFromDomain конвертирует domain.Session в SessionResponse.
func SessionFromDomain(s domain.Session) SessionResponse {
	return SessionResponse{
		ID:              s.ID,
		QuestionnaireID: s.QuestionnaireID,
		Version:         s.Version,
		Status:          s.Status.String(),
		CurrentStep:     s.CurrentStep,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		CreatedAt:       s.CreatedAt,
	}
}

// ProgressResponse — позиция текущего шага среди видимых.
type ProgressResponse struct {
	Position int `json:"position"`
	Total    int `json:"total"`
}

// SessionViewResponse — сессия с текущим шагом.
type SessionViewResponse struct {
	Session  SessionResponse   `json:"session"`
	Step     *StepResponse     `json:"step,omitempty"`
	Progress *ProgressResponse `json:"progress,omitempty"`
}

// ViewFromSession конвертирует session.View в SessionViewResponse.
func ViewFromSession(v *session.View) SessionViewResponse {
	resp := SessionViewResponse{Session: SessionFromDomain(*v.Session)}
	if v.Step != nil {
		step := StepFromDomain(v.Step, v.Text)
		resp.Step = &step
		resp.Progress = &ProgressResponse{Position: v.Position, Total: v.Total}
	}
	return resp
}

// AnswerResponse — записанный ответ.
type AnswerResponse struct {
	ID         uuid.UUID          `json:"id"`
	StepID     string             `json:"step_id"`
	Value      domain.AnswerValue `json:"value"`
	Position   int                `json:"position"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// AnswerFromDomain конвертирует domain.Answer в AnswerResponse.
func AnswerFromDomain(a domain.Answer) AnswerResponse {
	return AnswerResponse{
		ID:         a.ID,
		StepID:     a.StepID,
		Value:      a.Value,
		Position:   a.Position,
		RecordedAt: a.RecordedAt,
	}
}

// PathFromSteps конвертирует видимый путь.
func PathFromSteps(steps []*domain.ConditionalStep) []StepResponse {
	out := make([]StepResponse, len(steps))
	for i, s := range steps {
		out[i] = StepFromDomain(s, "")
	}
	return out
}


// AuditEntryResponse — запись журнала событий.
type AuditEntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	Event     string         `json:"event"`
	StepID    string         `json:"step_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditFromDomain конвертирует domain.AuditEntry в AuditEntryResponse.
func AuditFromDomain(e domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID,
		Event:     e.Event,
		StepID:    e.StepID,
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
	}
}
