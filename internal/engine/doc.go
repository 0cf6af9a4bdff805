// Package engine содержит движок навигации по шагам опросника.
//
// Включает:
//   - navigator.go — следующий/предыдущий видимый шаг, проверка условий
//   - store.go     — ResultStore (снимок ответов, только чтение)
//   - graph.go     — граф зависимостей условий и его анализ
//   - text.go      — рендеринг текста шага с подстановкой ответов
//
// Движок не выполняет I/O и не хранит состояния между вызовами.
package engine
