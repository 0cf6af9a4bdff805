package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAnswerValues(t *testing.T) {
	values, err := parseAnswerValues([]string{"true"}, []string{"cig", "http://loinc.org|LA1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := json.Marshal(values)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `[{"boolean":true},{"coding":{"code":"cig"}},{"coding":{"code":"LA1","system":"http://loinc.org"}}]`
	if string(data) != want {
		t.Errorf("values = %s, want %s", data, want)
	}
}

func TestParseAnswerValues_Errors(t *testing.T) {
	tests := []struct {
		name  string
		bools []string
		codes []string
	}{
		{"no values", nil, nil},
		{"bad bool", []string{"maybe"}, nil},
		{"empty code", nil, []string{"http://x|"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseAnswerValues(tt.bools, tt.codes); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"q.yaml":      "application/yaml",
		"q.YML":       "application/yaml",
		"q.json":      "application/json",
		"no-ext-file": "application/json",
	}
	for path, want := range tests {
		if got := contentTypeFor(path); got != want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"error":{"code":"INVALID_STATE","message":"session is finished"}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Next("abc")
	if err == nil || err.Error() != "INVALID_STATE: session is finished" {
		t.Errorf("err = %v", err)
	}
}

func TestClient_ImportVersion(t *testing.T) {
	var gotPath, gotType, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotPath = r.URL.RequestURI()
		gotType = r.Header.Get("Content-Type")
		gotBody = string(body)

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"questionnaire_id":"q1","version":3,"steps":4,"warnings":["w"]}}`)
	}))
	defer srv.Close()

	v, err := NewClient(srv.URL).ImportVersion("q1", []byte("resourceType: Questionnaire"), "application/yaml", true)
	if err != nil {
		t.Fatalf("ImportVersion: %v", err)
	}

	if gotPath != "/api/v1/questionnaires/q1/versions?force=true" {
		t.Errorf("path = %q", gotPath)
	}
	if gotType != "application/yaml" || gotBody != "resourceType: Questionnaire" {
		t.Errorf("content-type = %q, body = %q", gotType, gotBody)
	}
	if v.Version != 3 || v.Steps != 4 || len(v.Warnings) != 1 {
		t.Errorf("version = %+v", v)
	}
}

func TestSessionAnswerCmd(t *testing.T) {
	var got RecordAnswerRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions/s1/answers" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"session":{"id":"s1","status":"IN_PROGRESS"},"step":{"id":"smoker"},"progress":{"position":1,"total":2}}}`)
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	cmd := NewSessionCmd(
		func() *Client { return NewClient(srv.URL) },
		func() *Output { return newOutput(false, &stdout, &stderr) },
	)
	cmd.SetArgs([]string{"answer", "s1", "smoker", "--bool", "true"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if got.StepID != "smoker" || len(got.Values) != 1 || got.Values[0]["boolean"] != true {
		t.Errorf("request = %+v", got)
	}
	if !strings.Contains(stdout.String(), "1/2") {
		t.Errorf("stdout missing progress:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Answer recorded for step smoker") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func runValidate(t *testing.T, name, content string) (string, string, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := NewValidateCmd(func() *Output { return newOutput(false, &stdout, &stderr) })
	cmd.SetArgs([]string{path})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestValidateCmd_YAML(t *testing.T) {
	stdout, _, err := runValidate(t, "smoking.yaml", `
resourceType: Questionnaire
item:
  - linkId: smoker
    type: boolean
  - linkId: per-day
    extension:
      - url: http://hl7.org/fhir/StructureDefinition/questionnaire-enableWhen
        extension:
          - url: "#question"
            valueString: smoker
          - url: "#answer"
            valueBoolean: true
`)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(stdout, "smoker=true") || !strings.Contains(stdout, "always") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestValidateCmd_Findings(t *testing.T) {
	_, stderr, err := runValidate(t, "forward.json", `{
	  "resourceType": "Questionnaire",
	  "item": [
	    {"linkId": "a", "extension": [{
	      "url": "http://hl7.org/fhir/StructureDefinition/questionnaire-enableWhen",
	      "extension": [{"url": "#question", "valueString": "b"}, {"url": "#answer", "valueBoolean": true}]
	    }]},
	    {"linkId": "b"}
	  ]
	}`)
	if err == nil {
		t.Fatal("expected error for forward requirement")
	}
	if !strings.Contains(stderr, "requires later step: b") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestValidateCmd_NotQuestionnaire(t *testing.T) {
	_, _, err := runValidate(t, "patient.json", `{"resourceType":"Patient"}`)
	if err == nil {
		t.Fatal("expected error")
	}
}

