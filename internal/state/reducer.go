package state

import (
	"slices"

	"github.com/idilsaglam/tada/internal/model"
)

// Reducer computes the next state from the current one and an action.
type Reducer func(model.AppState, Action) model.AppState

// Reduce is the todo reducer. It never mutates its input: every change
// produces a new todos slice, and invalid payloads leave state unchanged.
func Reduce(state model.AppState, action Action) model.AppState {
	switch a := action.(type) {
	case LoadTodosStart:
		state.IsLoading = true
		return state

	case LoadTodosSuccess:
		todos := slices.Clone(a.Todos)
		if todos == nil {
			todos = []model.Todo{}
		}
		state.Todos = todos
		state.IsLoading = false
		return state

	case AddTodo:
		if a.ID == "" || a.Text == "" || indexOf(state.Todos, a.ID) >= 0 {
			return state
		}
		todos := make([]model.Todo, len(state.Todos), len(state.Todos)+1)
		copy(todos, state.Todos)
		state.Todos = append(todos, model.Todo{
			ID:          a.ID,
			Text:        a.Text,
			IsCompleted: false,
			CreatedAt:   a.CreatedAt,
		})
		return state

	case RemoveTodo:
		i := indexOf(state.Todos, a.ID)
		if a.ID == "" || i < 0 {
			return state
		}
		todos := make([]model.Todo, 0, len(state.Todos)-1)
		todos = append(todos, state.Todos[:i]...)
		state.Todos = append(todos, state.Todos[i+1:]...)
		return state

	case CompleteTodo:
		i := indexOf(state.Todos, a.ID)
		if a.ID == "" || i < 0 || state.Todos[i].IsCompleted {
			return state
		}
		todos := slices.Clone(state.Todos)
		done := todos[i]
		done.IsCompleted = true
		todos[i] = done
		state.Todos = todos
		return state

	case Rehydrate:
		return state

	default:
		return state
	}
}

func indexOf(todos []model.Todo, id string) int {
	for i, t := range todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
