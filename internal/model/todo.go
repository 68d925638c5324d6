package model

import "time"

// FreshFor is how long a todo counts as fresh after creation.
const FreshFor = 5 * 24 * time.Hour

// Todo is the domain model for a todo entry.
// Only IsCompleted ever changes, and only from false to true.
type Todo struct {
	ID          string    `json:"id" yaml:"id"`
	Text        string    `json:"text" yaml:"text"`
	IsCompleted bool      `json:"isCompleted" yaml:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// IsFresh reports whether t was created within FreshFor of now.
func (t Todo) IsFresh(now time.Time) bool {
	return t.CreatedAt.After(now.Add(-FreshFor))
}

// AppState is the whole application state owned by the store.
type AppState struct {
	Todos     []Todo
	IsLoading bool
}

// InitialState is the state before rehydration: no todos, not loading.
func InitialState() AppState {
	return AppState{Todos: []Todo{}}
}
