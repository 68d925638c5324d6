package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/storage"
)

// PersistedState is the stored shape of AppState. A nil field means the key
// was absent and the store keeps its own value. IsLoading is never stored.
type PersistedState struct {
	Todos *[]model.Todo `json:"todos,omitempty"`
}

// EncodeState serializes the persisted slice of s.
func EncodeState(s model.AppState) ([]byte, error) {
	todos := s.Todos
	if todos == nil {
		todos = []model.Todo{}
	}
	b, err := json.Marshal(PersistedState{Todos: &todos})
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

// DecodeState parses a stored blob. Records without an id or text and
// repeated ids are dropped so the store's uniqueness invariant holds.
func DecodeState(blob []byte) (PersistedState, error) {
	var ps PersistedState
	if err := json.Unmarshal(blob, &ps); err != nil {
		return PersistedState{}, fmt.Errorf("json unmarshal: %w", err)
	}
	if ps.Todos == nil {
		return ps, nil
	}

	seen := make(map[string]struct{}, len(*ps.Todos))
	clean := make([]model.Todo, 0, len(*ps.Todos))
	for _, t := range *ps.Todos {
		if t.ID == "" || t.Text == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		clean = append(clean, t)
	}
	ps.Todos = &clean
	return ps, nil
}

// MergeLevel1 overlays persisted onto current one level deep: each key
// present in persisted replaces the current value, absent keys are kept.
func MergeLevel1(current model.AppState, persisted PersistedState) model.AppState {
	out := current
	if persisted.Todos != nil {
		out.Todos = slices.Clone(*persisted.Todos)
		if out.Todos == nil {
			out.Todos = []model.Todo{}
		}
	}
	return out
}

// PersistReducer wraps base so Rehydrate actions merge persisted state in.
func PersistReducer(base Reducer) Reducer {
	if base == nil {
		base = Reduce
	}
	return func(s model.AppState, a Action) model.AppState {
		if r, ok := a.(Rehydrate); ok {
			return MergeLevel1(s, r.Persisted)
		}
		return base(s, a)
	}
}

// Options configures the store built by Configure.
type Options struct {
	Adapter   storage.Adapter
	Namespace string
	// Throttle delays each write so bursts of actions coalesce into one.
	Throttle time.Duration
	Logger   *slog.Logger
	// Middleware runs before the persistor sees an action.
	Middleware []Middleware
	// OnPersist, when set, is told the outcome of every write.
	OnPersist func(error)
}

// Configure builds the store with the persisted reducer and starts its
// persistor. Call Persistor.Rehydrate before relying on the state, and
// Persistor.Close before exit.
func Configure(opts Options) (*Store, *Persistor) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Persistor{
		adapter:   opts.Adapter,
		namespace: opts.Namespace,
		throttle:  opts.Throttle,
		logger:    logger,
		onPersist: opts.OnPersist,
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	mws := append(slices.Clone(opts.Middleware), p.middleware)
	p.store = New(PersistReducer(Reduce), model.InitialState(), mws...)
	go p.loop()
	return p.store, p
}

// Persistor keeps the adapter in step with the store.
//
// Nothing is written until Rehydrate has run, so an empty initial state can
// never overwrite a stored list. Afterwards every applied action schedules a
// write of the latest state on a background goroutine. Failed writes are
// logged, and Close tries once more before reporting the failure.
type Persistor struct {
	store     *Store
	adapter   storage.Adapter
	namespace string
	throttle  time.Duration
	logger    *slog.Logger
	onPersist func(error)

	rehydrateOnce sync.Once

	mu         sync.Mutex
	rehydrated bool
	dirty      bool
	lastErr    error

	writeMu sync.Mutex

	kick      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Rehydrate reads the stored blob once and merges it into the store.
// Read and decode failures are logged and treated as nothing stored.
// Concurrent callers wait for the first one to finish.
func (p *Persistor) Rehydrate(ctx context.Context) {
	p.rehydrateOnce.Do(func() { p.rehydrate(ctx) })
}

func (p *Persistor) rehydrate(ctx context.Context) {
	var persisted PersistedState
	blob, ok, err := p.adapter.Get(ctx, p.namespace)
	switch {
	case err != nil:
		p.logger.Warn("rehydrate: read failed", "namespace", p.namespace, "error", err)
	case ok:
		ps, derr := DecodeState(blob)
		if derr != nil {
			p.logger.Warn("rehydrate: corrupt data ignored", "namespace", p.namespace, "error", derr)
		} else {
			persisted = ps
		}
	}
	p.store.Dispatch(Rehydrate{Persisted: persisted})

	p.mu.Lock()
	p.rehydrated = true
	pending := p.dirty
	p.mu.Unlock()
	if pending {
		p.schedule()
	}
	p.logger.Debug("rehydrated", "namespace", p.namespace, "found", ok && err == nil)
}

// Rehydrated reports whether Rehydrate has completed.
func (p *Persistor) Rehydrated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rehydrated
}

// Flush writes the current state now. It is a no-op before Rehydrate.
func (p *Persistor) Flush(ctx context.Context) error {
	if !p.Rehydrated() {
		return nil
	}
	return p.write(ctx)
}

// Close stops the background writer and flushes any unwritten change.
// A state whose last write failed is written again, and the error of
// that attempt is returned.
func (p *Persistor) Close(ctx context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		close(p.stop)
		<-p.done

		p.mu.Lock()
		pending := (p.dirty || p.lastErr != nil) && p.rehydrated
		p.mu.Unlock()
		if pending {
			err = p.write(ctx)
		}
	})
	return err
}

func (p *Persistor) middleware(_ func() model.AppState, next Dispatch) Dispatch {
	return func(a Action) {
		next(a)
		if _, ok := a.(Rehydrate); ok {
			return
		}
		p.mu.Lock()
		p.dirty = true
		ready := p.rehydrated
		p.mu.Unlock()
		if ready {
			p.schedule()
		}
	}
}

func (p *Persistor) schedule() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Persistor) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case <-p.kick:
		}
		if p.throttle > 0 {
			t := time.NewTimer(p.throttle)
			select {
			case <-p.stop:
				t.Stop()
				return
			case <-t.C:
			}
		}
		_ = p.write(context.Background())
	}
}

func (p *Persistor) write(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	p.dirty = false
	p.mu.Unlock()

	blob, err := EncodeState(p.store.GetState())
	if err == nil {
		err = p.adapter.Set(ctx, p.namespace, blob)
	}
	if err != nil {
		p.logger.Warn("persist: write failed", "namespace", p.namespace, "error", err)
	}
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	if p.onPersist != nil {
		p.onPersist(err)
	}
	return err
}
