package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/repo"
	"github.com/shaiso/Pathway/internal/session"
)

const smokingQuestionnaire = `{
  "resourceType": "Questionnaire",
  "name": "smoking",
  "item": [
    {"linkId": "smoker", "type": "boolean", "text": "Do you smoke?"},
    {"linkId": "per-day", "type": "integer", "text": "How many per day?",
     "extension": [{
       "url": "http://hl7.org/fhir/StructureDefinition/questionnaire-enableWhen",
       "extension": [{"url": "#question", "valueString": "smoker"}, {"url": "#answer", "valueBoolean": true}]
     }]},
    {"linkId": "end", "type": "display", "text": "Thank you"}
  ]
}`

// forwardQuestionnaire ссылается на ответ шага, который идёт позже.
const forwardQuestionnaire = `{
  "resourceType": "Questionnaire",
  "item": [
    {"linkId": "a",
     "extension": [{
       "url": "http://hl7.org/fhir/StructureDefinition/questionnaire-enableWhen",
       "extension": [{"url": "#question", "valueString": "b"}, {"url": "#answer", "valueBoolean": true}]
     }]},
    {"linkId": "b", "type": "boolean"}
  ]
}`

// memStore — in-memory хранилище для всех репозиториев.
type memStore struct {
	mu             sync.Mutex
	questionnaires map[uuid.UUID]*domain.Questionnaire
	versions       map[uuid.UUID][]domain.QuestionnaireVersion
	sessions       map[uuid.UUID]*domain.Session
	answers        map[uuid.UUID][]domain.Answer
}

func newMemStore() *memStore {
	return &memStore{
		questionnaires: make(map[uuid.UUID]*domain.Questionnaire),
		versions:       make(map[uuid.UUID][]domain.QuestionnaireVersion),
		sessions:       make(map[uuid.UUID]*domain.Session),
		answers:        make(map[uuid.UUID][]domain.Answer),
	}
}

func (m *memStore) Create(_ context.Context, q *domain.Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.questionnaires {
		if existing.Name == q.Name {
			return repo.ErrAlreadyExists
		}
	}
	cp := *q
	m.questionnaires[q.ID] = &cp
	return nil
}

func (m *memStore) GetByName(_ context.Context, name string) (*domain.Questionnaire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questionnaires {
		if q.Name == name {
			cp := *q
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Questionnaire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questionnaires[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memStore) List(_ context.Context) ([]domain.Questionnaire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Questionnaire, 0, len(m.questionnaires))
	for _, q := range m.questionnaires {
		out = append(out, *q)
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questionnaires[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.questionnaires, id)
	delete(m.versions, id)
	return nil
}

func (m *memStore) CreateVersion(_ context.Context, id uuid.UUID, definition json.RawMessage) (*domain.QuestionnaireVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questionnaires[id]; !ok {
		return nil, repo.ErrNotFound
	}
	v := domain.QuestionnaireVersion{
		QuestionnaireID: id,
		Version:         len(m.versions[id]) + 1,
		Definition:      definition,
		CreatedAt:       time.Now(),
	}
	m.versions[id] = append(m.versions[id], v)
	return &v, nil
}

func (m *memStore) GetVersion(_ context.Context, id uuid.UUID, version int) (*domain.QuestionnaireVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := m.versions[id]
	if version <= 0 || version > len(versions) {
		return nil, repo.ErrNotFound
	}
	v := versions[version-1]
	return &v, nil
}

func (m *memStore) GetLatestVersion(ctx context.Context, id uuid.UUID) (*domain.QuestionnaireVersion, error) {
	m.mu.Lock()
	n := len(m.versions[id])
	m.mu.Unlock()
	return m.GetVersion(ctx, id, n)
}

func (m *memStore) ListVersions(_ context.Context, id uuid.UUID) ([]domain.QuestionnaireVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.QuestionnaireVersion(nil), m.versions[id]...), nil
}

// sessionStore и answerStore разделяют memStore, но имеют свои методы Create/GetByID.
type sessionStore struct{ *memStore }

func (s sessionStore) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s sessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s sessionStore) Update(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s sessionStore) List(_ context.Context, filter repo.SessionFilter) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Session
	for _, sess := range s.sessions {
		if filter.QuestionnaireID != nil && sess.QuestionnaireID != *filter.QuestionnaireID {
			continue
		}
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		out = append(out, *sess)
	}
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// auditStore отдаёт журнал, записанный заранее.
type auditStore map[uuid.UUID][]domain.AuditEntry

func (a auditStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]domain.AuditEntry, error) {
	return a[sessionID], nil
}

type answerStore struct{ *memStore }

func (a answerStore) Append(_ context.Context, sessionID uuid.UUID, stepID string, values []domain.AnswerValue) ([]domain.Answer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Answer, 0, len(values))
	for _, v := range values {
		ans := domain.Answer{
			ID:         uuid.New(),
			SessionID:  sessionID,
			StepID:     stepID,
			Value:      v,
			Position:   len(a.answers[sessionID]) + 1,
			RecordedAt: time.Now(),
		}
		a.answers[sessionID] = append(a.answers[sessionID], ans)
		out = append(out, ans)
	}
	return out, nil
}

func (a answerStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]domain.Answer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Answer(nil), a.answers[sessionID]...), nil
}

// --- Helpers ---

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	srv, store, _ := newTestServerWithAudit(t)
	return srv, store
}

func newTestServerWithAudit(t *testing.T) (*httptest.Server, *memStore, auditStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()
	audit := auditStore{}

	sessions, err := session.New(session.Config{
		Questionnaires: store,
		Sessions:       sessionStore{store},
		Answers:        answerStore{store},
		Logger:         logger,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	h := NewHandler(Config{
		QuestionnaireRepo: store,
		SessionRepo:       sessionStore{store},
		AuditRepo:         audit,
		Sessions:          sessions,
		Logger:            logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store, audit
}

func do(t *testing.T, srv *httptest.Server, method, path, contentType, body string, out any) int {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func createQuestionnaire(t *testing.T, srv *httptest.Server, name, definition string) string {
	t.Helper()

	var q envelope[QuestionnaireResponse]
	if code := do(t, srv, "POST", "/api/v1/questionnaires", "application/json", `{"name":"`+name+`"}`, &q); code != http.StatusCreated {
		t.Fatalf("create questionnaire: status %d", code)
	}

	id := q.Data.ID.String()
	if code := do(t, srv, "POST", "/api/v1/questionnaires/"+id+"/versions", "application/json", definition, nil); code != http.StatusCreated {
		t.Fatalf("create version: status %d", code)
	}
	return id
}

func stepIDOf(v SessionViewResponse) string {
	if v.Step == nil {
		return ""
	}
	return v.Step.ID
}

// --- Tests ---

func TestAPI_SessionFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	qid := createQuestionnaire(t, srv, "smoking", smokingQuestionnaire)

	var started envelope[SessionViewResponse]
	if code := do(t, srv, "POST", "/api/v1/questionnaires/"+qid+"/sessions", "application/json", "", &started); code != http.StatusCreated {
		t.Fatalf("start: status %d", code)
	}
	if got := stepIDOf(started.Data); got != "smoker" {
		t.Fatalf("first step = %q, want smoker", got)
	}
	if started.Data.Progress == nil || started.Data.Progress.Total != 2 {
		t.Errorf("progress = %+v, want total 2", started.Data.Progress)
	}

	sid := started.Data.Session.ID.String()

	var answered envelope[SessionViewResponse]
	code := do(t, srv, "POST", "/api/v1/sessions/"+sid+"/answers", "application/json",
		`{"step_id":"smoker","values":[{"boolean":true}]}`, &answered)
	if code != http.StatusCreated {
		t.Fatalf("answer: status %d", code)
	}

	var next envelope[SessionViewResponse]
	if code := do(t, srv, "POST", "/api/v1/sessions/"+sid+"/next", "", "", &next); code != http.StatusOK {
		t.Fatalf("next: status %d", code)
	}
	if got := stepIDOf(next.Data); got != "per-day" {
		t.Errorf("after smoker=true next = %q, want per-day", got)
	}

	var path struct {
		Data  []StepResponse `json:"data"`
		Total int            `json:"total"`
	}
	if code := do(t, srv, "GET", "/api/v1/sessions/"+sid+"/path", "", "", &path); code != http.StatusOK {
		t.Fatalf("path: status %d", code)
	}
	if path.Total != 3 {
		t.Errorf("path total = %d, want 3", path.Total)
	}

	var prev envelope[SessionViewResponse]
	if code := do(t, srv, "POST", "/api/v1/sessions/"+sid+"/previous", "", "", &prev); code != http.StatusOK {
		t.Fatalf("previous: status %d", code)
	}
	if got := stepIDOf(prev.Data); got != "smoker" {
		t.Errorf("previous = %q, want smoker", got)
	}

	if code := do(t, srv, "POST", "/api/v1/sessions/"+sid+"/previous", "", "", nil); code != http.StatusUnprocessableEntity {
		t.Errorf("previous at first step: status %d, want 422", code)
	}

	var answers struct {
		Data []AnswerResponse `json:"data"`
	}
	if code := do(t, srv, "GET", "/api/v1/sessions/"+sid+"/answers", "", "", &answers); code != http.StatusOK {
		t.Fatalf("answers: status %d", code)
	}
	if len(answers.Data) != 1 || answers.Data[0].StepID != "smoker" {
		t.Errorf("answers = %+v", answers.Data)
	}
}

func TestAPI_SessionCompletes(t *testing.T) {
	srv, _ := newTestServer(t)
	qid := createQuestionnaire(t, srv, "smoking", smokingQuestionnaire)

	var started envelope[SessionViewResponse]
	do(t, srv, "POST", "/api/v1/questionnaires/"+qid+"/sessions", "application/json", `{"version":1}`, &started)
	sid := started.Data.Session.ID.String()

	do(t, srv, "POST", "/api/v1/sessions/"+sid+"/answers", "application/json", `{"step_id":"smoker","values":[{"boolean":false}]}`, nil)

	var next envelope[SessionViewResponse]
	do(t, srv, "POST", "/api/v1/sessions/"+sid+"/next", "", "", &next)
	if got := stepIDOf(next.Data); got != "end" {
		t.Fatalf("after smoker=false next = %q, want end", got)
	}

	var done envelope[SessionViewResponse]
	do(t, srv, "POST", "/api/v1/sessions/"+sid+"/next", "", "", &done)
	if done.Data.Step != nil {
		t.Errorf("expected no step after end, got %q", done.Data.Step.ID)
	}
	if done.Data.Session.Status != domain.SessionStatusCompleted.String() {
		t.Errorf("status = %q, want %q", done.Data.Session.Status, domain.SessionStatusCompleted)
	}

	if code := do(t, srv, "POST", "/api/v1/sessions/"+sid+"/answers", "application/json", `{"step_id":"end","values":[{"boolean":true}]}`, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("answer after completion: status %d, want 422", code)
	}
}

func TestAPI_RecordAnswerErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	qid := createQuestionnaire(t, srv, "smoking", smokingQuestionnaire)

	var started envelope[SessionViewResponse]
	do(t, srv, "POST", "/api/v1/questionnaires/"+qid+"/sessions", "", "", &started)
	sid := started.Data.Session.ID.String()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"missing step", `{"values":[{"boolean":true}]}`, http.StatusBadRequest},
		{"unknown step", `{"step_id":"nope","values":[{"boolean":true}]}`, http.StatusBadRequest},
		{"no values", `{"step_id":"smoker","values":[]}`, http.StatusBadRequest},
		{"hidden step", `{"step_id":"per-day","values":[{"boolean":true}]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := do(t, srv, "POST", "/api/v1/sessions/"+sid+"/answers", "application/json", tt.body, nil); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestAPI_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	missing := uuid.New().String()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/api/v1/questionnaires/" + missing, http.StatusNotFound},
		{"GET", "/api/v1/questionnaires/not-a-uuid", http.StatusBadRequest},
		{"DELETE", "/api/v1/questionnaires/" + missing, http.StatusNotFound},
		{"GET", "/api/v1/questionnaires/" + missing + "/versions", http.StatusNotFound},
		{"GET", "/api/v1/questionnaires/" + missing + "/versions/0", http.StatusBadRequest},
		{"POST", "/api/v1/questionnaires/" + missing + "/sessions", http.StatusNotFound},
		{"GET", "/api/v1/sessions/" + missing, http.StatusNotFound},
		{"POST", "/api/v1/sessions/" + missing + "/next", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if code := do(t, srv, tt.method, tt.path, "", "", nil); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestAPI_QuestionnaireCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	qid := createQuestionnaire(t, srv, "intake", smokingQuestionnaire)

	if code := do(t, srv, "POST", "/api/v1/questionnaires", "application/json", `{"name":"intake"}`, nil); code != http.StatusConflict {
		t.Errorf("duplicate name: status %d, want 409", code)
	}
	if code := do(t, srv, "POST", "/api/v1/questionnaires", "application/json", `{}`, nil); code != http.StatusBadRequest {
		t.Errorf("missing name: status %d, want 400", code)
	}

	var list struct {
		Data  []QuestionnaireResponse `json:"data"`
		Total int                     `json:"total"`
	}
	do(t, srv, "GET", "/api/v1/questionnaires", "", "", &list)
	if list.Total != 1 || list.Data[0].Name != "intake" {
		t.Errorf("list = %+v", list)
	}

	var version envelope[VersionResponse]
	if code := do(t, srv, "GET", "/api/v1/questionnaires/"+qid+"/versions/1", "", "", &version); code != http.StatusOK {
		t.Fatalf("get version: status %d", code)
	}
	if version.Data.Version != 1 || len(version.Data.Definition) == 0 {
		t.Errorf("version = %+v", version.Data)
	}

	if code := do(t, srv, "DELETE", "/api/v1/questionnaires/"+qid, "", "", nil); code != http.StatusNoContent {
		t.Errorf("delete: status %d, want 204", code)
	}
}

func TestAPI_CreateVersionYAML(t *testing.T) {
	srv, _ := newTestServer(t)

	var q envelope[QuestionnaireResponse]
	do(t, srv, "POST", "/api/v1/questionnaires", "application/json", `{"name":"yaml"}`, &q)

	body := `
resourceType: Questionnaire
item:
  - linkId: q1
    type: boolean
  - linkId: q2
`
	var version envelope[VersionResponse]
	code := do(t, srv, "POST", "/api/v1/questionnaires/"+q.Data.ID.String()+"/versions", "application/yaml", body, &version)
	if code != http.StatusCreated {
		t.Fatalf("create yaml version: status %d", code)
	}
	if version.Data.Steps != 2 {
		t.Errorf("steps = %d, want 2", version.Data.Steps)
	}
}

func TestAPI_CreateVersionRejectsFindings(t *testing.T) {
	srv, store := newTestServer(t)

	var q envelope[QuestionnaireResponse]
	do(t, srv, "POST", "/api/v1/questionnaires", "application/json", `{"name":"forward"}`, &q)
	path := "/api/v1/questionnaires/" + q.Data.ID.String() + "/versions"

	if code := do(t, srv, "POST", path, "application/json", forwardQuestionnaire, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("forward reference: status %d, want 422", code)
	}
	if n := len(store.versions[q.Data.ID]); n != 0 {
		t.Fatalf("versions stored = %d, want 0", n)
	}

	var version envelope[VersionResponse]
	if code := do(t, srv, "POST", path+"?force=true", "application/json", forwardQuestionnaire, &version); code != http.StatusCreated {
		t.Fatalf("forced: status %d, want 201", code)
	}
	if len(version.Data.Warnings) == 0 {
		t.Error("expected warnings for forced version")
	}

	if code := do(t, srv, "POST", path, "application/json", `{"resourceType":"Patient"}`, nil); code != http.StatusBadRequest {
		t.Errorf("not a questionnaire: status %d, want 400", code)
	}
}

func TestAPI_Validate(t *testing.T) {
	srv, _ := newTestServer(t)

	var result envelope[ValidationResponse]
	if code := do(t, srv, "POST", "/api/v1/validate", "application/json", forwardQuestionnaire, &result); code != http.StatusOK {
		t.Fatalf("validate: status %d", code)
	}
	if result.Data.Valid {
		t.Error("forward reference should not be valid")
	}
	if len(result.Data.Steps) != 2 || len(result.Data.Findings) == 0 {
		t.Errorf("result = %+v", result.Data)
	}
	if result.Data.Findings[0].StepID != "a" {
		t.Errorf("finding step = %q, want a", result.Data.Findings[0].StepID)
	}

	var clean envelope[ValidationResponse]
	do(t, srv, "POST", "/api/v1/validate", "application/json", smokingQuestionnaire, &clean)
	if !clean.Data.Valid || len(clean.Data.Findings) != 0 {
		t.Errorf("smoking questionnaire should be valid: %+v", clean.Data.Findings)
	}
}

func TestAPI_AbandonSession(t *testing.T) {
	srv, _ := newTestServer(t)
	qid := createQuestionnaire(t, srv, "smoking", smokingQuestionnaire)

	var started envelope[SessionViewResponse]
	do(t, srv, "POST", "/api/v1/questionnaires/"+qid+"/sessions", "", "", &started)
	sid := started.Data.Session.ID.String()

	var abandoned envelope[SessionResponse]
	if code := do(t, srv, "POST", "/api/v1/sessions/"+sid+"/abandon", "", "", &abandoned); code != http.StatusOK {
		t.Fatalf("abandon: status %d", code)
	}
	if abandoned.Data.Status != domain.SessionStatusAbandoned.String() {
		t.Errorf("status = %q", abandoned.Data.Status)
	}

	if code := do(t, srv, "POST", "/api/v1/sessions/"+sid+"/next", "", "", nil); code != http.StatusUnprocessableEntity {
		t.Errorf("next after abandon: status %d, want 422", code)
	}
}

func TestAPI_FindQuestionnaireByName(t *testing.T) {
	srv, _ := newTestServer(t)
	qid := createQuestionnaire(t, srv, "intake", smokingQuestionnaire)

	var found struct {
		Data  []QuestionnaireResponse `json:"data"`
		Total int                     `json:"total"`
	}
	do(t, srv, "GET", "/api/v1/questionnaires?name=intake", "", "", &found)
	if len(found.Data) != 1 || found.Data[0].ID.String() != qid {
		t.Errorf("found = %+v", found)
	}

	var missing struct {
		Data []QuestionnaireResponse `json:"data"`
	}
	if code := do(t, srv, "GET", "/api/v1/questionnaires?name=nope", "", "", &missing); code != http.StatusOK {
		t.Fatalf("status %d, want 200", code)
	}
	if len(missing.Data) != 0 {
		t.Errorf("missing = %+v", missing.Data)
	}
}

func TestAPI_ListSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	qid := createQuestionnaire(t, srv, "smoking", smokingQuestionnaire)

	var first, second envelope[SessionViewResponse]
	do(t, srv, "POST", "/api/v1/questionnaires/"+qid+"/sessions", "", "", &first)
	do(t, srv, "POST", "/api/v1/questionnaires/"+qid+"/sessions", "", "", &second)
	do(t, srv, "POST", "/api/v1/sessions/"+second.Data.Session.ID.String()+"/abandon", "", "", nil)

	var list struct {
		Data  []SessionResponse `json:"data"`
		Total int               `json:"total"`
	}
	do(t, srv, "GET", "/api/v1/sessions?questionnaire_id="+qid+"&status=abandoned", "", "", &list)
	if list.Total != 1 || list.Data[0].ID != second.Data.Session.ID {
		t.Errorf("abandoned sessions = %+v", list)
	}

	for _, query := range []string{"status=DONE", "questionnaire_id=x", "limit=0", "offset=-1"} {
		if code := do(t, srv, "GET", "/api/v1/sessions?"+query, "", "", nil); code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", query, code)
		}
	}
}

func TestAPI_SessionAudit(t *testing.T) {
	srv, _, audit := newTestServerWithAudit(t)

	sid := uuid.New()
	audit[sid] = []domain.AuditEntry{
		{ID: uuid.New(), SessionID: sid, Event: "session.started", CreatedAt: time.Now()},
		{ID: uuid.New(), SessionID: sid, Event: "answer.recorded", StepID: "smoker", CreatedAt: time.Now()},
	}

	var entries struct {
		Data []AuditEntryResponse `json:"data"`
	}
	if code := do(t, srv, "GET", "/api/v1/sessions/"+sid.String()+"/audit", "", "", &entries); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(entries.Data) != 2 || entries.Data[1].StepID != "smoker" {
		t.Errorf("entries = %+v", entries.Data)
	}
}
