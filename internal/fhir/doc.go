// Package fhir читает фрагмент FHIR Questionnaire, нужный навигатору.
//
// Включает:
//   - questionnaire.go — разбор JSON/YAML ресурса Questionnaire (items, extensions)
//   - extract.go       — извлечение условий enableWhen в domain.Requirement
//   - build.go         — сборка domain.OrderedTask из опросника
//
// Остальная часть FHIR-схемы не поддерживается и игнорируется.
package fhir
