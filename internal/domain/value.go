package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// DefaultCodeSystem — система кодирования, подставляемая для coded-ответов,
// у которых system не указан.
const DefaultCodeSystem = "http://fhir.smarthealthit.org"

// AnswerKind — вариант AnswerValue.
type AnswerKind int

const (
	// AnswerKindInvalid — нулевое значение AnswerValue, не равно ничему.
	AnswerKindInvalid AnswerKind = iota

	// AnswerKindBoolean — ответ да/нет.
	AnswerKindBoolean

	// AnswerKindCoded — ответ кодом из системы кодирования.
	AnswerKindCoded
)

// String возвращает имя варианта.
func (k AnswerKind) String() string {
	switch k {
	case AnswerKindBoolean:
		return "boolean"
	case AnswerKindCoded:
		return "coded"
	default:
		return "invalid"
	}
}

// ErrInvalidAnswerValue — JSON не описывает ни один из вариантов AnswerValue.
var ErrInvalidAnswerValue = errors.New("invalid answer value")

// AnswerValue — сравнимое представление ответа.
//
// Закрытый набор вариантов:
//   - Boolean(bool)
//   - Coded(system, code)
//
// Поля неэкспортируемые: значение создаётся только через BooleanAnswer
// и CodedAnswer и после создания не меняется.
type AnswerValue struct {
	kind    AnswerKind
	boolean bool
	system  string
	code    string
}

// BooleanAnswer создаёт ответ варианта Boolean.
func BooleanAnswer(v bool) AnswerValue {
	return AnswerValue{kind: AnswerKindBoolean, boolean: v}
}

// CodedAnswer создаёт ответ варианта Coded.
// Пустой system заменяется на DefaultCodeSystem.
func CodedAnswer(system, code string) AnswerValue {
	return AnswerValue{kind: AnswerKindCoded, system: normalizeSystem(system), code: code}
}

func normalizeSystem(system string) string {
	if system == "" {
		return DefaultCodeSystem
	}
	return system
}

// Kind возвращает вариант значения.
func (v AnswerValue) Kind() AnswerKind {
	return v.kind
}

// Bool возвращает payload варианта Boolean.
// ok=false для остальных вариантов.
func (v AnswerValue) Bool() (value, ok bool) {
	return v.boolean, v.kind == AnswerKindBoolean
}

// Coding возвращает payload варианта Coded.
func (v AnswerValue) Coding() (system, code string, ok bool) {
	if v.kind != AnswerKindCoded {
		return "", "", false
	}
	return normalizeSystem(v.system), v.code, true
}

// IsValid возвращает false для нулевого значения.
func (v AnswerValue) IsValid() bool {
	return v.kind != AnswerKindInvalid
}

// Equal сравнивает два ответа.
//
// Ответы равны, если совпадают вариант и payload (после нормализации system).
// Ответы разных вариантов не равны никогда.
func (v AnswerValue) Equal(other AnswerValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case AnswerKindBoolean:
		return v.boolean == other.boolean
	case AnswerKindCoded:
		return normalizeSystem(v.system) == normalizeSystem(other.system) && v.code == other.code
	default:
		return false
	}
}

// String возвращает человекочитаемое представление (для логов и шаблонов).
func (v AnswerValue) String() string {
	switch v.kind {
	case AnswerKindBoolean:
		return strconv.FormatBool(v.boolean)
	case AnswerKindCoded:
		return normalizeSystem(v.system) + "|" + v.code
	default:
		return "<invalid>"
	}
}

// codingJSON — JSON форма payload варианта Coded.
type codingJSON struct {
	System string `json:"system,omitempty"`
	Code   string `json:"code"`
}

// answerJSON — JSON форма AnswerValue: заполнено ровно одно поле.
type answerJSON struct {
	Boolean *bool       `json:"boolean,omitempty"`
	Coding  *codingJSON `json:"coding,omitempty"`
}

// MarshalJSON реализует json.Marshaler.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case AnswerKindBoolean:
		b := v.boolean
		return json.Marshal(answerJSON{Boolean: &b})
	case AnswerKindCoded:
		return json.Marshal(answerJSON{Coding: &codingJSON{System: normalizeSystem(v.system), Code: v.code}})
	default:
		return nil, fmt.Errorf("marshal answer: %w", ErrInvalidAnswerValue)
	}
}

// UnmarshalJSON реализует json.Unmarshaler.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw answerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal answer: %w", err)
	}

	switch {
	case raw.Boolean != nil && raw.Coding == nil:
		*v = BooleanAnswer(*raw.Boolean)
	case raw.Coding != nil && raw.Boolean == nil:
		if raw.Coding.Code == "" {
			return fmt.Errorf("coding without code: %w", ErrInvalidAnswerValue)
		}
		*v = CodedAnswer(raw.Coding.System, raw.Coding.Code)
	default:
		return ErrInvalidAnswerValue
	}
	return nil
}
