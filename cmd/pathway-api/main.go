// Pathway API — HTTP API для опросников и сессий.
//
// API:
//   - Хранит версии опросников (FHIR Questionnaire)
//   - Ведёт сессии: записывает ответы и выбирает следующий видимый шаг
//   - Публикует события сессий в RabbitMQ (если доступен)
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Pathway/internal/api"
	"github.com/shaiso/Pathway/internal/config"
	"github.com/shaiso/Pathway/internal/mq"
	"github.com/shaiso/Pathway/internal/repo"
	"github.com/shaiso/Pathway/internal/session"
	"github.com/shaiso/Pathway/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting pathway-api")

	cfg := config.Load()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	questionnaireRepo := repo.NewQuestionnaireRepo(pool)
	sessionRepo := repo.NewSessionRepo(pool)
	answerRepo := repo.NewAnswerRepo(pool)
	auditRepo := repo.NewAuditRepo(pool)

	svcCfg := session.Config{
		Questionnaires: questionnaireRepo,
		Sessions:       sessionRepo,
		Answers:        answerRepo,
		CacheSize:      cfg.TaskCacheSize,
		Logger:         logger,
	}

	// RabbitMQ опционален: без него события не публикуются
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, session events disabled", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		svcCfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	sessions, err := session.New(svcCfg)
	if err != nil {
		logger.Error("failed to create session service", "error", err)
		os.Exit(1)
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		QuestionnaireRepo: questionnaireRepo,
		SessionRepo:       sessionRepo,
		AuditRepo:         auditRepo,
		Sessions:          sessions,
		Logger:            logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := cfg.APIAddr()

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
