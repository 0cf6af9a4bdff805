package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/fhir"
	"github.com/shaiso/Pathway/internal/repo"
	"github.com/shaiso/Pathway/internal/session"
)

// maxDefinitionSize — максимальный размер определения опросника.
const maxDefinitionSize = 4 << 20

// ListQuestionnaires возвращает список всех опросников.
// GET /api/v1/questionnaires[?name=NAME]
func (h *Handler) ListQuestionnaires(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		h.findQuestionnaire(w, r, name)
		return
	}

	list, err := h.questionnaires.List(r.Context())
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	result := make([]QuestionnaireResponse, len(list))
	for i, q := range list {
		result[i] = QuestionnaireFromDomain(q)
	}

	List(w, result, len(result))
}

// findQuestionnaire отдаёт список из одного опросника с указанным именем.
func (h *Handler) findQuestionnaire(w http.ResponseWriter, r *http.Request, name string) {
	q, err := h.questionnaires.GetByName(r.Context(), name)
	if errors.Is(err, repo.ErrNotFound) {
		List(w, []QuestionnaireResponse{}, 0)
		return
	}
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	List(w, []QuestionnaireResponse{QuestionnaireFromDomain(*q)}, 1)
}

// CreateQuestionnaire создаёт новый опросник.
// POST /api/v1/questionnaires
func (h *Handler) CreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionnaireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	q := &domain.Questionnaire{
		ID:        uuid.New(),
		Name:      req.Name,
		Title:     req.Title,
		CreatedAt: time.Now(),
	}

	if err := h.questionnaires.Create(r.Context(), q); err != nil {
		HandleRepoError(w, h.log(r), err, "")
		return
	}

	Created(w, QuestionnaireFromDomain(*q))
}

// GetQuestionnaire возвращает опросник по ID.
// GET /api/v1/questionnaires/{id}
func (h *Handler) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid questionnaire id")
	if !ok {
		return
	}

	q, err := h.questionnaires.GetByID(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "questionnaire not found") {
		return
	}

	Success(w, QuestionnaireFromDomain(*q))
}

// DeleteQuestionnaire удаляет опросник.
// DELETE /api/v1/questionnaires/{id}
func (h *Handler) DeleteQuestionnaire(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid questionnaire id")
	if !ok {
		return
	}

	if err := h.questionnaires.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.log(r), err, "questionnaire not found")
		return
	}

	NoContent(w)
}

// ListVersions возвращает список версий опросника.
// GET /api/v1/questionnaires/{id}/versions
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid questionnaire id")
	if !ok {
		return
	}

	_, err := h.questionnaires.GetByID(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "questionnaire not found") {
		return
	}

	versions, err := h.questionnaires.ListVersions(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	// В списке определение не возвращается: его получают по номеру версии
	result := make([]VersionResponse, len(versions))
	for i, v := range versions {
		result[i] = VersionFromDomain(v)
		result[i].Definition = nil
	}

	List(w, result, len(result))
}

// CreateVersion создаёт новую версию опросника из ресурса Questionnaire.
// POST /api/v1/questionnaires/{id}/versions[?force=true]
//
// Тело — JSON ресурса или YAML (Content-Type application/yaml).
// Версия с недостижимыми условиями сохраняется только с force=true.
func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid questionnaire id")
	if !ok {
		return
	}

	definition, compiled, ok := h.readDefinition(w, r)
	if !ok {
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if len(compiled.Findings) > 0 && !force {
		JSON(w, http.StatusUnprocessableEntity, struct {
			Error ErrorDetail        `json:"error"`
			Data  ValidationResponse `json:"data"`
		}{
			Error: ErrorDetail{Code: ErrCodeInvalidState, Message: "questionnaire has unreachable conditions, use force=true to save anyway"},
			Data:  ValidationFromCompiled(compiled),
		})
		return
	}

	_, err := h.questionnaires.GetByID(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "questionnaire not found") {
		return
	}

	version, err := h.questionnaires.CreateVersion(r.Context(), id, definition)
	if HandleRepoError(w, h.log(r), err, "questionnaire not found") {
		return
	}

	resp := VersionFromDomain(*version)
	resp.Definition = nil
	resp.Steps = compiled.Task.Len()
	resp.Warnings = warnings(compiled)

	Created(w, resp)
}

// GetVersion возвращает конкретную версию опросника.
// GET /api/v1/questionnaires/{id}/versions/{version}
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "invalid questionnaire id")
	if !ok {
		return
	}

	versionNum, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || versionNum <= 0 {
		BadRequest(w, "invalid version number")
		return
	}

	version, err := h.questionnaires.GetVersion(r.Context(), id, versionNum)
	if HandleRepoError(w, h.log(r), err, "version not found") {
		return
	}

	Success(w, VersionFromDomain(*version))
}

// Validate разбирает определение опросника и возвращает шаги
// и находки анализа условий, ничего не сохраняя.
// POST /api/v1/validate
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	_, compiled, ok := h.readDefinition(w, r)
	if !ok {
		return
	}

	Success(w, ValidationFromCompiled(compiled))
}

// readDefinition читает тело запроса как ресурс Questionnaire (JSON или YAML)
// и компилирует его. Возвращает JSON-представление определения.
func (h *Handler) readDefinition(w http.ResponseWriter, r *http.Request) (json.RawMessage, *session.Compiled, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDefinitionSize))
	if err != nil {
		BadRequest(w, "failed to read request body")
		return nil, nil, false
	}

	if isYAML(r.Header.Get("Content-Type")) {
		body, err = fhir.YAMLToJSON(body)
		if err != nil {
			BadRequest(w, err.Error())
			return nil, nil, false
		}
	}

	compiled, err := session.Compile(body, h.log(r))
	if err != nil {
		BadRequest(w, fmt.Sprintf("invalid questionnaire: %v", err))
		return nil, nil, false
	}

	return json.RawMessage(body), compiled, true
}

func isYAML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasSuffix(mediaType, "yaml")
}

// pathUUID разбирает {id} из пути. При ошибке отправляет 400.
func pathUUID(w http.ResponseWriter, r *http.Request, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, message)
		return uuid.Nil, false
	}
	return id, true
}
