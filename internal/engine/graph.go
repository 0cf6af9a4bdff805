package engine

import (
	"fmt"
	"sort"

	"github.com/shaiso/Pathway/internal/domain"
)

// Node — шаг в графе условий.
type Node struct {
	// Step — шаг task.
	Step *domain.ConditionalStep

	// ID — идентификатор шага.
	ID string

	// Position — позиция шага в task.
	Position int

	// InDegree — количество шагов-вопросов, от которых зависит шаг.
	InDegree int

	// DependsOn — шаги-вопросы, от ответов на которые зависит показ.
	DependsOn []*Node

	// Dependents — шаги, показ которых зависит от ответа на этот шаг.
	Dependents []*Node
}

// Graph — граф зависимостей между шагами по условиям показа.
//
// Ребро question → step означает, что step показывается только
// при определённом ответе на question.
type Graph struct {
	// Nodes — все узлы графа (stepID → Node).
	Nodes map[string]*Node

	// Order — узлы в порядке task.
	Order []*Node
}

// BuildGraph строит граф условий task.
//
// Возвращает ошибку, если условие ссылается на неизвестный шаг,
// шаг зависит от самого себя или зависимости образуют цикл.
func BuildGraph(task *domain.OrderedTask) (*Graph, error) {
	g := newGraph(task)

	for _, node := range g.Order {
		for _, qid := range node.Step.DependsOn() {
			if qid == node.ID {
				return nil, NewValidationError(node.ID, "step requires its own answer", ErrSelfRequirement)
			}
			dep, exists := g.Nodes[qid]
			if !exists {
				return nil, NewValidationError(node.ID,
					fmt.Sprintf("requires unknown step: %s", qid), ErrUnknownQuestion)
			}
			g.addEdge(dep, node)
		}
	}

	if _, err := g.topologicalSort(); err != nil {
		return nil, err
	}

	return g, nil
}

// Analyze возвращает все находки по условиям task.
// Пустой результат означает, что каждый условный шаг достижим.
func Analyze(task *domain.OrderedTask) []*ValidationError {
	g := newGraph(task)
	var findings []*ValidationError

	for _, node := range g.Order {
		for _, qid := range node.Step.DependsOn() {
			if qid == node.ID {
				findings = append(findings, NewValidationError(node.ID,
					"step requires its own answer", ErrSelfRequirement))
				continue
			}

			dep, exists := g.Nodes[qid]
			if !exists {
				findings = append(findings, NewValidationError(node.ID,
					fmt.Sprintf("requires unknown step: %s", qid), ErrUnknownQuestion))
				continue
			}

			if dep.Position > node.Position {
				findings = append(findings, NewValidationError(node.ID,
					fmt.Sprintf("requires later step: %s", qid), ErrForwardRequirement))
			}

			g.addEdge(dep, node)
		}
	}

	if _, err := g.topologicalSort(); err != nil {
		findings = append(findings, NewValidationError("", err.Error(), ErrCyclicRequirement))
	}

	return findings
}

func newGraph(task *domain.OrderedTask) *Graph {
	g := &Graph{
		Nodes: make(map[string]*Node, task.Len()),
		Order: make([]*Node, 0, task.Len()),
	}

	for i := 0; i < task.Len(); i++ {
		step := task.At(i)
		node := &Node{
			Step:       step,
			ID:         step.ID,
			Position:   i,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
		}
		g.Nodes[step.ID] = node
		g.Order = append(g.Order, node)
	}

	return g
}

// addEdge добавляет ребро между узлами.
// Дубликаты пропускаются, чтобы не учитывать InDegree дважды.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID == from.ID {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
func (g *Graph) topologicalSort() ([]*Node, error) {
	// Копируем inDegree, чтобы не модифицировать узлы
	inDegree := make(map[string]int, len(g.Nodes))
	queue := make([]*Node, 0)
	for _, node := range g.Order {
		inDegree[node.ID] = node.InDegree
		if node.InDegree == 0 {
			queue = append(queue, node)
		}
	}

	order := make([]*Node, 0, len(g.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.ID]--
			if inDegree[dependent.ID] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		var stuck []string
		for _, node := range g.Order {
			if inDegree[node.ID] > 0 {
				stuck = append(stuck, node.ID)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrCyclicRequirement, stuck)
	}

	return order, nil
}

// GetNode возвращает узел по ID.
func (g *Graph) GetNode(id string) *Node {
	return g.Nodes[id]
}

// Affected возвращает шаги, видимость которых зависит от ответа
// на stepID, в порядке task.
func (g *Graph) Affected(stepID string) []string {
	node, ok := g.Nodes[stepID]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(node.Dependents))
	for _, dep := range node.Dependents {
		ids = append(ids, dep.ID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return g.Nodes[ids[i]].Position < g.Nodes[ids[j]].Position
	})
	return ids
}
