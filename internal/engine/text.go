package engine

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/shaiso/Pathway/internal/domain"
)

// baseFuncs — функции шаблонов, не зависящие от ответов.
var baseFuncs = template.FuncMap{
	// default — возвращает значение по умолчанию, если второй аргумент пустой
	"default": func(def, val string) string {
		if val == "" {
			return def
		}
		return val
	},

	// join — объединяет слайс строк
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},

	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"trim":  strings.TrimSpace,
}

// answerFuncs возвращает функции шаблонов, читающие ответы из store.
//
//	{{ answer "q1" }}       — первый ответ на q1 ("" если нет)
//	{{ answers "q1" }}      — все ответы на q1 ([]string)
//	{{ code "q2" }}         — код первого coded-ответа на q2
//	{{ if answered "q1" }}  — есть ли ответ на q1
func answerFuncs(store ResultStore) template.FuncMap {
	return template.FuncMap{
		"answer": func(stepID string) string {
			values := store.Answers(stepID)
			if len(values) == 0 {
				return ""
			}
			return displayValue(values[0])
		},
		"answers": func(stepID string) []string {
			values := store.Answers(stepID)
			out := make([]string, len(values))
			for i, v := range values {
				out[i] = displayValue(v)
			}
			return out
		},
		"code": func(stepID string) string {
			for _, v := range store.Answers(stepID) {
				if _, code, ok := v.Coding(); ok {
					return code
				}
			}
			return ""
		},
		"answered": func(stepID string) bool {
			return len(store.Answers(stepID)) > 0
		},
	}
}

// displayValue — представление ответа для текста: для coded — только код.
func displayValue(v domain.AnswerValue) string {
	if _, code, ok := v.Coding(); ok {
		return code
	}
	return v.String()
}

// RenderText рендерит текст шага, подставляя ранее записанные ответы.
//
// Текст без шаблонных выражений возвращается как есть.
func RenderText(step *domain.ConditionalStep, store ResultStore) (string, error) {
	return Render(step.Text, store)
}

// Render рендерит строковый шаблон с функциями доступа к ответам.
func Render(tmpl string, store ResultStore) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").
		Funcs(baseFuncs).
		Funcs(answerFuncs(storeOrEmpty(store))).
		Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}
