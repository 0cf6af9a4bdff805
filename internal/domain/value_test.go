package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAnswerValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b AnswerValue
		want bool
	}{
		{"bool same", BooleanAnswer(true), BooleanAnswer(true), true},
		{"bool different", BooleanAnswer(true), BooleanAnswer(false), false},
		{"coded same", CodedAnswer("http://x", "c1"), CodedAnswer("http://x", "c1"), true},
		{"coded different code", CodedAnswer("http://x", "c1"), CodedAnswer("http://x", "c2"), false},
		{"coded different system", CodedAnswer("http://x", "c1"), CodedAnswer("http://y", "c1"), false},
		{"coded default vs missing system", CodedAnswer(DefaultCodeSystem, "123"), CodedAnswer("", "123"), true},
		{"bool vs coded", BooleanAnswer(true), CodedAnswer("", "true"), false},
		{"coded vs bool", CodedAnswer("", "true"), BooleanAnswer(true), false},
		{"zero vs zero", AnswerValue{}, AnswerValue{}, false},
		{"zero vs bool", AnswerValue{}, BooleanAnswer(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			// Равенство симметрично
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("reverse Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnswerValue_Accessors(t *testing.T) {
	b := BooleanAnswer(true)
	if v, ok := b.Bool(); !ok || !v {
		t.Errorf("Bool() = %v, %v", v, ok)
	}
	if _, _, ok := b.Coding(); ok {
		t.Error("boolean answer should not expose coding")
	}

	c := CodedAnswer("", "c1")
	system, code, ok := c.Coding()
	if !ok || system != DefaultCodeSystem || code != "c1" {
		t.Errorf("Coding() = %q, %q, %v", system, code, ok)
	}
	if c.Kind() != AnswerKindCoded {
		t.Errorf("Kind() = %v", c.Kind())
	}
	if (AnswerValue{}).IsValid() {
		t.Error("zero value should be invalid")
	}
}

func TestAnswerValue_JSON(t *testing.T) {
	data, err := json.Marshal(CodedAnswer("", "c1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"coding":{"system":"` + DefaultCodeSystem + `","code":"c1"}}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var v AnswerValue
	if err := json.Unmarshal([]byte(`{"boolean":false}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.Equal(BooleanAnswer(false)) {
		t.Errorf("got %v", v)
	}

	invalid := []string{`{}`, `{"coding":{"system":"x"}}`, `{"boolean":true,"coding":{"code":"a"}}`}
	for _, in := range invalid {
		var v AnswerValue
		if err := json.Unmarshal([]byte(in), &v); !errors.Is(err, ErrInvalidAnswerValue) {
			t.Errorf("%s: expected ErrInvalidAnswerValue, got %v", in, err)
		}
	}

	if _, err := json.Marshal(AnswerValue{}); err == nil {
		t.Error("expected error marshalling zero value")
	}
}
