package state

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/idilsaglam/tada/internal/model"
)

// Dispatch applies an action to the store.
type Dispatch func(Action)

// Middleware wraps the dispatch chain. It sees every action before the
// reducer and may call next zero or more times.
type Middleware func(getState func() model.AppState, next Dispatch) Dispatch

// Thunk is deferred work that may dispatch several actions and block on I/O.
type Thunk func(ctx context.Context, dispatch Dispatch, getState func() model.AppState) error

// Store owns the single authoritative AppState.
//
// Actions are reduced one at a time in dispatch order. Listeners run
// synchronously after each action, outside the lock, so they may dispatch.
type Store struct {
	reducer Reducer

	mu    sync.Mutex
	state model.AppState

	lmu       sync.Mutex
	listeners map[uint64]func()
	nextID    uint64

	dispatch Dispatch
}

// New builds a store. Middleware runs in the order given, the first one
// seeing actions first.
func New(reducer Reducer, initial model.AppState, middleware ...Middleware) *Store {
	if reducer == nil {
		reducer = Reduce
	}
	s := &Store{
		reducer:   reducer,
		state:     initial,
		listeners: map[uint64]func(){},
	}
	d := Dispatch(s.apply)
	for i := len(middleware) - 1; i >= 0; i-- {
		d = middleware[i](s.GetState, d)
	}
	s.dispatch = d
	return s
}

// Dispatch sends a through the middleware chain and the reducer.
func (s *Store) Dispatch(a Action) {
	if a == nil {
		return
	}
	s.dispatch(a)
}

// GetState returns a snapshot; mutating it does not affect the store.
func (s *Store) GetState() model.AppState {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	st.Todos = slices.Clone(st.Todos)
	return st
}

// Subscribe registers fn to run after every applied action.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

// Run executes t on the calling goroutine with the store's dispatch.
func (s *Store) Run(ctx context.Context, t Thunk) error {
	return t(ctx, s.Dispatch, s.GetState)
}

func (s *Store) apply(a Action) {
	s.mu.Lock()
	s.state = s.reducer(s.state, a)
	s.mu.Unlock()

	s.lmu.Lock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// LoggingMiddleware logs every action at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(getState func() model.AppState, next Dispatch) Dispatch {
		return func(a Action) {
			next(a)
			st := getState()
			done, pending := CountTodos(st)
			logger.Debug("action applied",
				"action", a.String(),
				"done", done,
				"pending", pending,
				"loading", st.IsLoading)
		}
	}
}
