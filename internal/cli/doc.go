// Package cli реализует инструмент командной строки Pathway.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Pathway API.
// Работает через HTTP и не импортирует internal/api. Исключение —
// команда validate: она проверяет файл опросника локально.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Pathway API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	view, err := client.StartSession(questionnaireID, 0)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Warn/Error) — в stderr.
// Это позволяет использовать pipe: pathway session path ID --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - questionnaire: list, create, show, delete, import, versions
//   - session: start, show, answer, next, prev, abandon, answers, path
//   - validate FILE
//
// Каждая группа создаётся через фабричную функцию (NewQuestionnaireCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
