// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go               — Handler с DI (репозиторий опросников, сервис сессий, logger)
//   - routes.go                — регистрация маршрутов
//   - middleware.go            — middleware (recovery, logging, metrics)
//   - response.go              — унифицированные JSON-ответы и обработка ошибок
//   - dto.go                   — Data Transfer Objects (request/response)
//   - questionnaire_handler.go — обработчики для /questionnaires и /validate
//   - session_handler.go       — обработчики для /sessions
//
// API позволяет слою представления записывать ответы и узнавать,
// какой шаг показать следующим.
package api
