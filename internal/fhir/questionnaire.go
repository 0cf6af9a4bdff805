package fhir

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"gopkg.in/yaml.v3"
)

// ItemTypeGroup — тип item, который только группирует вложенные вопросы.
const ItemTypeGroup = "group"

// Questionnaire — разобранный ресурс Questionnaire (только нужные поля).
type Questionnaire struct {
	ID     string
	Name   string
	Title  string
	Status string
	Items  []Item
}

// Item — элемент опросника (вопрос, группа или текст).
type Item struct {
	LinkID     string
	Text       string
	Type       string
	Extensions []Extension
	Items      []Item
}

// Extension — FHIR extension.
//
// Value содержит ровно одно поле value[x] (ключ — полное имя поля,
// например "valueBoolean"), если оно есть.
type Extension struct {
	URL        string
	ValueKey   string
	Value      *gabs.Container
	Extensions []Extension
}

// Fragment возвращает фрагмент URL (часть после '#').
// "http://example.org/ext#answer" → "answer", "#question" → "question".
func (e Extension) Fragment() string {
	if u, err := url.Parse(e.URL); err == nil {
		return u.Fragment
	}
	_, fragment, _ := strings.Cut(e.URL, "#")
	return fragment
}

// ExtensionsByURL возвращает extensions элемента с указанным URL.
func (it Item) ExtensionsByURL(uri string) []Extension {
	var out []Extension
	for _, ext := range it.Extensions {
		if ext.URL == uri {
			out = append(out, ext)
		}
	}
	return out
}

// ParseQuestionnaire разбирает JSON ресурса Questionnaire.
func ParseQuestionnaire(data []byte) (*Questionnaire, error) {
	root, err := gabs.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse questionnaire json: %w", err)
	}

	if rt, _ := root.S("resourceType").Data().(string); rt != "Questionnaire" {
		return nil, fmt.Errorf("%w: resourceType %q", ErrNotQuestionnaire, rt)
	}

	q := &Questionnaire{
		ID:     stringAt(root, "id"),
		Name:   stringAt(root, "name"),
		Title:  stringAt(root, "title"),
		Status: stringAt(root, "status"),
	}

	for _, child := range root.S("item").Children() {
		q.Items = append(q.Items, parseItem(child))
	}

	if len(q.Items) == 0 {
		return nil, ErrNoItems
	}

	return q, nil
}

// ParseQuestionnaireYAML разбирает Questionnaire, записанный в YAML.
// Структура та же, что у JSON-ресурса.
func ParseQuestionnaireYAML(data []byte) (*Questionnaire, error) {
	jsonData, err := YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return ParseQuestionnaire(jsonData)
}

// YAMLToJSON переводит YAML-документ ресурса в JSON, в котором
// определения хранятся в БД.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse questionnaire yaml: %w", err)
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml to json: %w", err)
	}
	return jsonData, nil
}

// parseItem разбирает item рекурсивно.
func parseItem(c *gabs.Container) Item {
	item := Item{
		LinkID:     stringAt(c, "linkId"),
		Text:       stringAt(c, "text"),
		Type:       stringAt(c, "type"),
		Extensions: parseExtensions(c),
	}

	for _, child := range c.S("item").Children() {
		item.Items = append(item.Items, parseItem(child))
	}

	return item
}

// parseExtensions разбирает массив "extension" контейнера.
func parseExtensions(c *gabs.Container) []Extension {
	children := c.S("extension").Children()
	if len(children) == 0 {
		return nil
	}

	exts := make([]Extension, 0, len(children))
	for _, child := range children {
		ext := Extension{
			URL:        stringAt(child, "url"),
			Extensions: parseExtensions(child),
		}

		// Ключи сортируются, чтобы выбор value[x] не зависел от порядка map
		fields := child.ChildrenMap()
		for _, key := range slices.Sorted(maps.Keys(fields)) {
			if strings.HasPrefix(key, "value") {
				ext.ValueKey = key
				ext.Value = fields[key]
				break
			}
		}

		exts = append(exts, ext)
	}

	return exts
}

func stringAt(c *gabs.Container, key string) string {
	s, _ := c.S(key).Data().(string)
	return s
}
