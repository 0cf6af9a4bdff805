package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// QuestionnaireResponse — опросник из API.
type QuestionnaireResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	CreatedAt string `json:"created_at"`
}

// VersionResponse — версия опросника из API.
type VersionResponse struct {
	QuestionnaireID string          `json:"questionnaire_id"`
	Version         int             `json:"version"`
	Definition      json.RawMessage `json:"definition,omitempty"`
	CreatedAt       string          `json:"created_at"`
	Steps           int             `json:"steps,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// StepResponse — шаг опросника из API.
type StepResponse struct {
	ID           string            `json:"id"`
	Text         string            `json:"text,omitempty"`
	Requirements []json.RawMessage `json:"requirements,omitempty"`
}

// SessionResponse — сессия из API.
type SessionResponse struct {
	ID              string `json:"id"`
	QuestionnaireID string `json:"questionnaire_id"`
	Version         int    `json:"version"`
	Status          string `json:"status"`
	CurrentStep     string `json:"current_step,omitempty"`
	StartedAt       string `json:"started_at,omitempty"`
	FinishedAt      string `json:"finished_at,omitempty"`
	CreatedAt       string `json:"created_at"`
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

// AnswerResponse — записанный ответ из API.
type AnswerResponse struct {
	ID         string          `json:"id"`
	StepID     string          `json:"step_id"`
	Value      json.RawMessage `json:"value"`
	Position   int             `json:"position"`
	RecordedAt string          `json:"recorded_at"`
}

// --- Request types ---

// AnswerValue — значение ответа в формате API: {"boolean":..} или {"coding":{..}}.
type AnswerValue map[string]any

// RecordAnswerRequest — запись ответа.
type RecordAnswerRequest struct {
	StepID string        `json:"step_id"`
	Values []AnswerValue `json:"values"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Pathway API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Questionnaires ---

// ListQuestionnaires возвращает все опросники.
func (c *Client) ListQuestionnaires() ([]QuestionnaireResponse, error) {
	var list []QuestionnaireResponse
	err := c.list("/api/v1/questionnaires", &list)
	return list, err
}

// CreateQuestionnaire создаёт новый опросник.
func (c *Client) CreateQuestionnaire(name, title string) (*QuestionnaireResponse, error) {
	body := map[string]string{"name": name, "title": title}
	var q QuestionnaireResponse
	err := c.post("/api/v1/questionnaires", body, &q)
	return &q, err
}

// GetQuestionnaire возвращает опросник по ID.
func (c *Client) GetQuestionnaire(id string) (*QuestionnaireResponse, error) {
	var q QuestionnaireResponse
	err := c.get("/api/v1/questionnaires/"+id, &q)
	return &q, err
}

// DeleteQuestionnaire удаляет опросник.
func (c *Client) DeleteQuestionnaire(id string) error {
	return c.delete("/api/v1/questionnaires/" + id)
}

// ListVersions возвращает версии опросника.
func (c *Client) ListVersions(questionnaireID string) ([]VersionResponse, error) {
	var versions []VersionResponse
	err := c.list("/api/v1/questionnaires/"+questionnaireID+"/versions", &versions)
	return versions, err
}

// ImportVersion создаёт новую версию опросника из ресурса Questionnaire.
// contentType — "application/json" или "application/yaml".
func (c *Client) ImportVersion(questionnaireID string, definition []byte, contentType string, force bool) (*VersionResponse, error) {
	path := "/api/v1/questionnaires/" + questionnaireID + "/versions"
	if force {
		path += "?force=true"
	}

	var version VersionResponse
	err := c.doRaw(http.MethodPost, path, definition, contentType, &version)
	return &version, err
}

// --- Sessions ---

// StartSession начинает сессию. version <= 0 — последняя версия.
func (c *Client) StartSession(questionnaireID string, version int) (*SessionViewResponse, error) {
	body := map[string]int{}
	if version > 0 {
		body["version"] = version
	}

	var view SessionViewResponse
	err := c.post("/api/v1/questionnaires/"+questionnaireID+"/sessions", body, &view)
	return &view, err
}

// GetSession возвращает сессию с текущим шагом.
func (c *Client) GetSession(id string) (*SessionViewResponse, error) {
	var view SessionViewResponse
	err := c.get("/api/v1/sessions/"+id, &view)
	return &view, err
}

// RecordAnswer записывает ответ на шаг.
func (c *Client) RecordAnswer(sessionID string, req RecordAnswerRequest) (*SessionViewResponse, error) {
	var view SessionViewResponse
	err := c.post("/api/v1/sessions/"+sessionID+"/answers", req, &view)
	return &view, err
}

// ListAnswers возвращает ответы сессии.
func (c *Client) ListAnswers(sessionID string) ([]AnswerResponse, error) {
	var answers []AnswerResponse
	err := c.list("/api/v1/sessions/"+sessionID+"/answers", &answers)
	return answers, err
}

// Next переводит сессию на следующий шаг.
func (c *Client) Next(sessionID string) (*SessionViewResponse, error) {
	var view SessionViewResponse
	err := c.post("/api/v1/sessions/"+sessionID+"/next", nil, &view)
	return &view, err
}

// Previous возвращает сессию на предыдущий шаг.
func (c *Client) Previous(sessionID string) (*SessionViewResponse, error) {
	var view SessionViewResponse
	err := c.post("/api/v1/sessions/"+sessionID+"/previous", nil, &view)
	return &view, err
}

// Abandon помечает сессию брошенной.
func (c *Client) Abandon(sessionID string) (*SessionResponse, error) {
	var sess SessionResponse
	err := c.post("/api/v1/sessions/"+sessionID+"/abandon", nil, &sess)
	return &sess, err
}

// Path возвращает шаги, видимые при текущих ответах.
func (c *Client) Path(sessionID string) ([]StepResponse, error) {
	var steps []StepResponse
	err := c.list("/api/v1/sessions/"+sessionID+"/path", &steps)
	return steps, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.decodeData(resp, result)
}

// doRaw отправляет тело как есть с указанным Content-Type.
func (c *Client) doRaw(method, path string, body []byte, contentType string, result any) error {
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.decodeData(resp, result)
}

func (c *Client) decodeData(resp *http.Response, result any) error {
	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
