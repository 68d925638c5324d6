package state

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/storage"
)

var (
	ErrEmptyText     = errors.New("todo text is empty")
	ErrDuplicateText = errors.New("a todo with this text already exists")
)

// LoadTodos reads the persisted list and replaces the store's todos with it.
//
// LoadTodosSuccess is dispatched exactly once per call. Missing, unreadable
// or corrupt data loads as an empty list; the failure is logged, not returned.
func LoadTodos(adapter storage.Adapter, namespace string, logger *slog.Logger) Thunk {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, dispatch Dispatch, _ func() model.AppState) error {
		dispatch(LoadTodosStart{})

		todos := []model.Todo{}
		blob, ok, err := adapter.Get(ctx, namespace)
		switch {
		case err != nil:
			logger.Warn("load todos: read failed, starting empty", "namespace", namespace, "error", err)
		case ok:
			ps, derr := DecodeState(blob)
			if derr != nil {
				logger.Warn("load todos: corrupt data, starting empty", "namespace", namespace, "error", derr)
			} else if ps.Todos != nil {
				todos = *ps.Todos
			}
		}

		dispatch(LoadTodosSuccess{Todos: todos})
		return nil
	}
}

// AddTodoRequest adds a todo with the trimmed text.
func AddTodoRequest(text string) Thunk {
	return func(_ context.Context, dispatch Dispatch, _ func() model.AppState) error {
		text = strings.TrimSpace(text)
		if text == "" {
			return ErrEmptyText
		}
		dispatch(NewAddTodo(text))
		return nil
	}
}

// AddUniqueTodoRequest is AddTodoRequest preceded by the duplicate-text
// check the views perform. The check and the add are not atomic.
func AddUniqueTodoRequest(text string) Thunk {
	return func(ctx context.Context, dispatch Dispatch, getState func() model.AppState) error {
		if HasTodoText(getState(), strings.TrimSpace(text)) {
			return ErrDuplicateText
		}
		return AddTodoRequest(text)(ctx, dispatch, getState)
	}
}

// RemoveTodoRequest removes the todo with id; unknown ids are ignored.
func RemoveTodoRequest(id string) Thunk {
	return func(_ context.Context, dispatch Dispatch, _ func() model.AppState) error {
		dispatch(RemoveTodo{ID: id})
		return nil
	}
}

// MarkTodoAsCompletedRequest completes the todo with id.
func MarkTodoAsCompletedRequest(id string) Thunk {
	return func(_ context.Context, dispatch Dispatch, _ func() model.AppState) error {
		dispatch(CompleteTodo{ID: id})
		return nil
	}
}
