package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shaiso/Pathway/internal/domain"
)

func mustTask(t *testing.T, steps ...domain.ConditionalStep) *domain.OrderedTask {
	t.Helper()
	task, err := domain.NewOrderedTask(steps)
	if err != nil {
		t.Fatalf("NewOrderedTask() error = %v", err)
	}
	return task
}

func requires(questionID string, expected domain.AnswerValue) []domain.Requirement {
	return []domain.Requirement{{QuestionID: questionID, Expected: expected}}
}

// abcTask — A → B → C, где B показывается только при A = true.
func abcTask(t *testing.T) *domain.OrderedTask {
	return mustTask(t,
		domain.ConditionalStep{ID: "A"},
		domain.ConditionalStep{ID: "B", Requirements: requires("A", domain.BooleanAnswer(true))},
		domain.ConditionalStep{ID: "C"},
	)
}

func stepID(step *domain.ConditionalStep) string {
	if step == nil {
		return "<nil>"
	}
	return step.ID
}

func TestNavigator_NextStep(t *testing.T) {
	nav := NewNavigator(abcTask(t))

	tests := []struct {
		name    string
		store   MapStore
		current string
		want    string
		wantOK  bool
	}{
		{"A false skips B", MapStore{"A": {domain.BooleanAnswer(false)}}, "A", "C", true},
		{"A true shows B", MapStore{"A": {domain.BooleanAnswer(true)}}, "A", "B", true},
		{"unanswered skips B", MapStore{}, "A", "C", true},
		{"start returns first", MapStore{}, Start, "A", true},
		{"last step", MapStore{"A": {domain.BooleanAnswer(true)}}, "C", "<nil>", false},
		{"unknown current", MapStore{}, "Z", "<nil>", false},
		{"one of several answers matches", MapStore{"A": {domain.BooleanAnswer(false), domain.BooleanAnswer(true)}}, "A", "B", true},
		{"coded answer never equals boolean", MapStore{"A": {domain.CodedAnswer("", "true")}}, "A", "C", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nav.NextStep(tt.current, tt.store)
			if ok != tt.wantOK {
				t.Fatalf("NextStep() ok = %v, want %v", ok, tt.wantOK)
			}
			if stepID(got) != tt.want {
				t.Errorf("NextStep() = %s, want %s", stepID(got), tt.want)
			}
		})
	}
}

func TestNavigator_PreviousStep(t *testing.T) {
	nav := NewNavigator(abcTask(t))

	tests := []struct {
		name    string
		store   MapStore
		current string
		want    string
		wantOK  bool
	}{
		{"A false skips B", MapStore{"A": {domain.BooleanAnswer(false)}}, "C", "A", true},
		{"A true shows B", MapStore{"A": {domain.BooleanAnswer(true)}}, "C", "B", true},
		{"end returns last", MapStore{}, End, "C", true},
		{"first step", MapStore{"A": {domain.BooleanAnswer(true)}}, "A", "<nil>", false},
		{"unknown current", MapStore{}, "Z", "<nil>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nav.PreviousStep(tt.current, tt.store)
			if ok != tt.wantOK {
				t.Fatalf("PreviousStep() ok = %v, want %v", ok, tt.wantOK)
			}
			if stepID(got) != tt.want {
				t.Errorf("PreviousStep() = %s, want %s", stepID(got), tt.want)
			}
		})
	}
}

func TestNavigator_Boundaries(t *testing.T) {
	nav := NewNavigator(abcTask(t))

	stores := []ResultStore{
		nil,
		MapStore{},
		MapStore{"A": {domain.BooleanAnswer(true)}, "B": {domain.CodedAnswer("http://x", "1")}, "C": {domain.BooleanAnswer(false)}},
	}

	for i, store := range stores {
		if step, ok := nav.PreviousStep("A", store); ok || step != nil {
			t.Errorf("store %d: PreviousStep(first) = %s, want none", i, stepID(step))
		}
		if step, ok := nav.NextStep("C", store); ok || step != nil {
			t.Errorf("store %d: NextStep(last) = %s, want none", i, stepID(step))
		}
	}
}

func TestNavigator_Idempotent(t *testing.T) {
	nav := NewNavigator(abcTask(t))
	store := MapStore{"A": {domain.BooleanAnswer(true)}}

	first, _ := nav.NextStep("A", store)
	second, _ := nav.NextStep("A", store)
	if first != second {
		t.Errorf("NextStep() not idempotent: %s then %s", stepID(first), stepID(second))
	}
	if len(store["A"]) != 1 {
		t.Errorf("store modified: %v", store)
	}
}

func TestNavigator_UnconditionalNeverSkipped(t *testing.T) {
	task := mustTask(t,
		domain.ConditionalStep{ID: "s1"},
		domain.ConditionalStep{ID: "s2"},
		domain.ConditionalStep{ID: "s3"},
	)
	nav := NewNavigator(task)

	for i := 0; i < task.Len(); i++ {
		step := task.At(i)
		if got := IsSatisfied(step, MapStore{}); got != NotApplicable {
			t.Errorf("IsSatisfied(%s) = %v, want %v", step.ID, got, NotApplicable)
		}
	}

	path := nav.VisiblePath(nil)
	if len(path) != 3 {
		t.Errorf("VisiblePath() len = %d, want 3", len(path))
	}
}

func TestNavigator_AllStepsHidden(t *testing.T) {
	task := mustTask(t,
		domain.ConditionalStep{ID: "s1", Requirements: requires("x", domain.BooleanAnswer(true))},
		domain.ConditionalStep{ID: "s2", Requirements: requires("x", domain.BooleanAnswer(true))},
	)
	nav := NewNavigator(task)

	if step, ok := nav.NextStep(Start, MapStore{}); ok {
		t.Errorf("NextStep(Start) = %s, want none", step.ID)
	}
	if step, ok := nav.PreviousStep(End, MapStore{}); ok {
		t.Errorf("PreviousStep(End) = %s, want none", step.ID)
	}
	if path := nav.VisiblePath(MapStore{}); len(path) != 0 {
		t.Errorf("VisiblePath() len = %d, want 0", len(path))
	}
}

func TestNavigator_LongHiddenChain(t *testing.T) {
	const n = 100000

	steps := make([]domain.ConditionalStep, 0, n+2)
	steps = append(steps, domain.ConditionalStep{ID: "first"})
	for i := 0; i < n; i++ {
		steps = append(steps, domain.ConditionalStep{
			ID:           fmt.Sprintf("hidden-%d", i),
			Requirements: requires("first", domain.BooleanAnswer(true)),
		})
	}
	steps = append(steps, domain.ConditionalStep{ID: "last"})

	nav := NewNavigator(mustTask(t, steps...))
	store := MapStore{"first": {domain.BooleanAnswer(false)}}

	if got, _ := nav.NextStep("first", store); stepID(got) != "last" {
		t.Errorf("NextStep(first) = %s, want last", stepID(got))
	}
	if got, _ := nav.PreviousStep("last", store); stepID(got) != "first" {
		t.Errorf("PreviousStep(last) = %s, want first", stepID(got))
	}
}

func TestIsSatisfied(t *testing.T) {
	step := &domain.ConditionalStep{
		ID: "s",
		Requirements: []domain.Requirement{
			{QuestionID: "q1", Expected: domain.BooleanAnswer(true)},
			{QuestionID: "q2", Expected: domain.CodedAnswer("", "123")},
		},
	}

	tests := []struct {
		name  string
		store MapStore
		want  Satisfaction
	}{
		{"all met", MapStore{"q1": {domain.BooleanAnswer(true)}, "q2": {domain.CodedAnswer(domain.DefaultCodeSystem, "123")}}, Satisfied},
		{"one unmet", MapStore{"q1": {domain.BooleanAnswer(true)}, "q2": {domain.CodedAnswer("http://other", "123")}}, Unsatisfied},
		{"one unanswered", MapStore{"q1": {domain.BooleanAnswer(true)}}, Unsatisfied},
		{"none answered", MapStore{}, Unsatisfied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSatisfied(step, tt.store); got != tt.want {
				t.Errorf("IsSatisfied() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNavigator_Progress(t *testing.T) {
	nav := NewNavigator(abcTask(t))

	pos, total := nav.Progress("C", MapStore{"A": {domain.BooleanAnswer(false)}})
	if pos != 2 || total != 2 {
		t.Errorf("Progress(C) = %d/%d, want 2/2", pos, total)
	}

	pos, total = nav.Progress("B", MapStore{"A": {domain.BooleanAnswer(false)}})
	if pos != 0 || total != 2 {
		t.Errorf("Progress(hidden B) = %d/%d, want 0/2", pos, total)
	}

	pos, total = nav.Progress("B", MapStore{"A": {domain.BooleanAnswer(true)}})
	if pos != 2 || total != 3 {
		t.Errorf("Progress(B) = %d/%d, want 2/3", pos, total)
	}
}

func TestNavigator_Concurrent(t *testing.T) {
	nav := NewNavigator(abcTask(t))
	store := MapStore{"A": {domain.BooleanAnswer(true)}}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, _ := nav.NextStep("A", store); stepID(got) != "B" {
				t.Errorf("NextStep(A) = %s, want B", stepID(got))
			}
		}()
	}
	wg.Wait()
}

func TestSatisfaction_String(t *testing.T) {
	tests := map[Satisfaction]string{
		NotApplicable: "not_applicable",
		Satisfied:     "satisfied",
		Unsatisfied:   "unsatisfied",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
