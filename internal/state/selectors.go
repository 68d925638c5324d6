package state

import (
	"slices"

	"github.com/idilsaglam/tada/internal/model"
)

// GetTodos returns every todo in insertion order.
func GetTodos(s model.AppState) []model.Todo {
	return slices.Clone(s.Todos)
}

// GetTodosLoading reports whether a load is in flight.
func GetTodosLoading(s model.AppState) bool {
	return s.IsLoading
}

// GetCompletedTodos returns the completed todos in their original order.
func GetCompletedTodos(s model.AppState) []model.Todo {
	return filter(s.Todos, func(t model.Todo) bool { return t.IsCompleted })
}

// GetIncompleteTodos returns the pending todos in their original order.
func GetIncompleteTodos(s model.AppState) []model.Todo {
	return filter(s.Todos, func(t model.Todo) bool { return !t.IsCompleted })
}

// HasTodoText reports whether a todo with exactly text exists (case-sensitive).
func HasTodoText(s model.AppState, text string) bool {
	return slices.ContainsFunc(s.Todos, func(t model.Todo) bool { return t.Text == text })
}

// FindTodo returns the todo with id.
func FindTodo(s model.AppState, id string) (model.Todo, bool) {
	if i := indexOf(s.Todos, id); i >= 0 {
		return s.Todos[i], true
	}
	return model.Todo{}, false
}

// CountTodos is used for headers and progress bars.
func CountTodos(s model.AppState) (done, pending int) {
	for _, t := range s.Todos {
		if t.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	return
}

func filter(todos []model.Todo, keep func(model.Todo) bool) []model.Todo {
	out := []model.Todo{}
	for _, t := range todos {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
