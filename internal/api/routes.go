package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)

	// Questionnaires
	mux.Handle("GET /api/v1/questionnaires", chain(http.HandlerFunc(h.ListQuestionnaires)))
	mux.Handle("POST /api/v1/questionnaires", chain(http.HandlerFunc(h.CreateQuestionnaire)))
	mux.Handle("GET /api/v1/questionnaires/{id}", chain(http.HandlerFunc(h.GetQuestionnaire)))
	mux.Handle("DELETE /api/v1/questionnaires/{id}", chain(http.HandlerFunc(h.DeleteQuestionnaire)))

	// Questionnaire Versions
	mux.Handle("GET /api/v1/questionnaires/{id}/versions", chain(http.HandlerFunc(h.ListVersions)))
	mux.Handle("POST /api/v1/questionnaires/{id}/versions", chain(http.HandlerFunc(h.CreateVersion)))
	mux.Handle("GET /api/v1/questionnaires/{id}/versions/{version}", chain(http.HandlerFunc(h.GetVersion)))
	mux.Handle("POST /api/v1/validate", chain(http.HandlerFunc(h.Validate)))

	// Sessions
	mux.Handle("POST /api/v1/questionnaires/{id}/sessions", chain(http.HandlerFunc(h.StartSession)))
	mux.Handle("GET /api/v1/sessions", chain(http.HandlerFunc(h.ListSessions)))
	mux.Handle("GET /api/v1/sessions/{id}", chain(http.HandlerFunc(h.GetSession)))
	mux.Handle("POST /api/v1/sessions/{id}/answers", chain(http.HandlerFunc(h.RecordAnswer)))
	mux.Handle("GET /api/v1/sessions/{id}/answers", chain(http.HandlerFunc(h.ListAnswers)))
	mux.Handle("POST /api/v1/sessions/{id}/next", chain(http.HandlerFunc(h.NextStep)))
	mux.Handle("POST /api/v1/sessions/{id}/previous", chain(http.HandlerFunc(h.PreviousStep)))
	mux.Handle("POST /api/v1/sessions/{id}/abandon", chain(http.HandlerFunc(h.AbandonSession)))
	mux.Handle("GET /api/v1/sessions/{id}/path", chain(http.HandlerFunc(h.SessionPath)))
	mux.Handle("GET /api/v1/sessions/{id}/audit", chain(http.HandlerFunc(h.SessionAudit)))
}
