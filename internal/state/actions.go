// Package state is the todo state container: a single store, a pure reducer
// over a closed set of actions, thunks for work that touches storage,
// selectors for derived views, and a persistence wrapper.
package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/model"
)

// Action is a descriptor of an intended state change. The set of actions is
// closed: only the types in this file implement it.
type Action interface {
	isAction()
	fmt.Stringer
}

// LoadTodosStart marks the beginning of a load.
type LoadTodosStart struct{}

// LoadTodosSuccess replaces the whole list with a loaded snapshot.
type LoadTodosSuccess struct {
	Todos []model.Todo
}

// AddTodo appends a new incomplete todo. Use NewAddTodo to build one.
type AddTodo struct {
	ID        string
	Text      string
	CreatedAt time.Time
}

// RemoveTodo drops the todo with ID.
type RemoveTodo struct {
	ID string
}

// CompleteTodo marks the todo with ID as completed.
type CompleteTodo struct {
	ID string
}

// Rehydrate carries persisted state into the store. Only the persisted
// reducer acts on it.
type Rehydrate struct {
	Persisted PersistedState
}

func (LoadTodosStart) isAction()   {}
func (LoadTodosSuccess) isAction() {}
func (AddTodo) isAction()          {}
func (RemoveTodo) isAction()       {}
func (CompleteTodo) isAction()     {}
func (Rehydrate) isAction()        {}

func (LoadTodosStart) String() string { return "LOAD_TODOS_START" }
func (a LoadTodosSuccess) String() string {
	return fmt.Sprintf("LOAD_TODOS_SUCCESS(%d)", len(a.Todos))
}
func (a AddTodo) String() string      { return fmt.Sprintf("ADD_TODO(%s)", a.ID) }
func (a RemoveTodo) String() string   { return fmt.Sprintf("REMOVE_TODO(%s)", a.ID) }
func (a CompleteTodo) String() string { return fmt.Sprintf("COMPLETE_TODO(%s)", a.ID) }
func (Rehydrate) String() string      { return "REHYDRATE" }

// Kind is the action name without payload, used for logs and metric labels.
func Kind(a Action) string {
	s := a.String()
	if i := strings.IndexByte(s, '('); i >= 0 {
		return s[:i]
	}
	return s
}

// NewAddTodo builds an AddTodo with a fresh id and the current time.
func NewAddTodo(text string) AddTodo {
	return AddTodo{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}
