// Package session ведёт прохождение опросников.
//
// Service связывает хранилище (questionnaires, sessions, answers),
// движок навигации и публикацию событий:
//   - Start    — создаёт сессию и ставит её на первый видимый шаг
//   - Answer   — записывает ответ на видимый шаг
//   - Next     — переходит к следующему видимому шагу или завершает сессию
//   - Previous — возвращается к предыдущему видимому шагу
//
// Скомпилированные версии опросников (OrderedTask + граф условий)
// кэшируются в LRU, поскольку версия после создания не меняется.
package session
