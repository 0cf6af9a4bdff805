package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests — количество HTTP запросов по маршруту и коду ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_http_requests_total",
		Help: "Total HTTP requests handled by pathway_api",
	}, []string{"method", "code"})

	// NavigationRequests — вычисления следующего/предыдущего шага.
	// result: "step" — найден видимый шаг, "none" — шагов в этом направлении нет.
	NavigationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_navigation_requests_total",
		Help: "Total step navigation requests",
	}, []string{"direction", "result"})

	// SkippedSteps — шаги, пропущенные из-за невыполненных условий.
	SkippedSteps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_skipped_steps_total",
		Help: "Total conditional steps skipped during navigation",
	})

	// ExtractionFailures — элементы опросника, условия которых не удалось извлечь.
	ExtractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_extraction_failures_total",
		Help: "Total questionnaire items whose enableWhen rules failed to extract",
	})

	// SessionsCompleted — завершённые сессии.
	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_sessions_completed_total",
		Help: "Total questionnaire sessions completed",
	})

	// AuditEvents — события, записанные audit consumer.
	AuditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_audit_events_total",
		Help: "Total session events written to the audit log",
	}, []string{"event"})
)
