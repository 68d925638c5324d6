package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/storage"
)

func sameTodos(a, b []model.Todo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Text != b[i].Text ||
			a[i].IsCompleted != b[i].IsCompleted || !a[i].CreatedAt.Equal(b[i].CreatedAt) {
			return false
		}
	}
	return true
}

func storedTodos(t *testing.T, a storage.Adapter) ([]model.Todo, bool) {
	t.Helper()
	blob, ok, err := a.Get(context.Background(), "todos")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		return nil, false
	}
	ps, err := DecodeState(blob)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if ps.Todos == nil {
		return nil, true
	}
	return *ps.Todos, true
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	todos := []model.Todo{
		todo("a", "A", false),
		{ID: "b", Text: "B", IsCompleted: true, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)},
	}
	blob, err := EncodeState(model.AppState{Todos: todos, IsLoading: true})
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	for _, field := range []string{`"id"`, `"text"`, `"isCompleted"`, `"createdAt"`} {
		if !strings.Contains(string(blob), field) {
			t.Fatalf("blob lacks %s: %s", field, blob)
		}
	}
	if strings.Contains(string(blob), "Loading") {
		t.Fatalf("isLoading must not be persisted: %s", blob)
	}

	ps, err := DecodeState(blob)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if ps.Todos == nil || !sameTodos(*ps.Todos, todos) {
		t.Fatalf("round trip mismatch: %#v", ps.Todos)
	}
}

func TestEncodeState_EmptyListIsArray(t *testing.T) {
	blob, err := EncodeState(model.AppState{})
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	if string(blob) != `{"todos":[]}` {
		t.Fatalf("blob = %s", blob)
	}
}

func TestDecodeState(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		wantErr bool
		wantNil bool
		wantIDs []string
	}{
		{name: "missing key", blob: `{}`, wantNil: true},
		{name: "null todos", blob: `{"todos":null}`, wantNil: true},
		{name: "empty list", blob: `{"todos":[]}`, wantIDs: []string{}},
		{name: "drops invalid and duplicate records", blob: `{"todos":[
			{"id":"a","text":"A"},
			{"id":"","text":"no id"},
			{"id":"b","text":""},
			{"id":"a","text":"again"},
			{"id":"c","text":"C","isCompleted":true}
		]}`, wantIDs: []string{"a", "c"}},
		{name: "unknown keys ignored", blob: `{"todos":[{"id":"a","text":"A"}],"theme":"dark"}`, wantIDs: []string{"a"}},
		{name: "garbage", blob: `not json`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := DecodeState([]byte(tt.blob))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeState: %v", err)
			}
			if tt.wantNil {
				if ps.Todos != nil {
					t.Fatalf("expected absent todos, got %#v", *ps.Todos)
				}
				return
			}
			if ps.Todos == nil {
				t.Fatal("expected todos")
			}
			got := ids(*ps.Todos)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
			}
			for i := range got {
				if got[i] != tt.wantIDs[i] {
					t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
				}
			}
		})
	}
}

func TestMergeLevel1(t *testing.T) {
	current := model.AppState{Todos: []model.Todo{todo("cur", "current", false)}, IsLoading: true}

	merged := MergeLevel1(current, PersistedState{})
	if !sameTodos(merged.Todos, current.Todos) || !merged.IsLoading {
		t.Fatalf("absent keys must keep current values: %#v", merged)
	}

	persisted := []model.Todo{todo("p", "persisted", true)}
	merged = MergeLevel1(current, PersistedState{Todos: &persisted})
	if !sameTodos(merged.Todos, persisted) {
		t.Fatalf("persisted todos must win: %#v", merged.Todos)
	}
	if !merged.IsLoading {
		t.Fatal("isLoading is not persisted and must be kept")
	}

	empty := []model.Todo{}
	merged = MergeLevel1(current, PersistedState{Todos: &empty})
	if merged.Todos == nil || len(merged.Todos) != 0 {
		t.Fatalf("present empty list must replace current: %#v", merged.Todos)
	}
}

func TestPersistReducer(t *testing.T) {
	r := PersistReducer(nil)
	persisted := []model.Todo{todo("p", "P", false)}

	s := r(model.InitialState(), Rehydrate{Persisted: PersistedState{Todos: &persisted}})
	if !sameTodos(s.Todos, persisted) {
		t.Fatalf("rehydrate not merged: %#v", s.Todos)
	}
	s = r(s, CompleteTodo{ID: "p"})
	if !s.Todos[0].IsCompleted {
		t.Fatal("other actions must reach the base reducer")
	}
}

func newTestStore(t *testing.T, a storage.Adapter, throttle time.Duration) (*Store, *Persistor, *atomic.Int64) {
	t.Helper()
	var writes atomic.Int64
	s, p := Configure(Options{
		Adapter:   a,
		Namespace: "todos",
		Throttle:  throttle,
		OnPersist: func(error) { writes.Add(1) },
	})
	t.Cleanup(func() { p.Close(context.Background()) })
	return s, p, &writes
}

func TestPersistor_RoundTripThroughFreshStore(t *testing.T) {
	mem := storage.NewMemoryStore()
	ctx := context.Background()

	s1, p1, _ := newTestStore(t, mem, 0)
	p1.Rehydrate(ctx)
	for _, text := range []string{"A", "B", "C"} {
		if err := s1.Run(ctx, AddTodoRequest(text)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s1.Run(ctx, MarkTodoAsCompletedRequest(s1.GetState().Todos[1].ID)); err != nil {
		t.Fatal(err)
	}
	if err := p1.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := s1.GetState().Todos

	s2, p2, _ := newTestStore(t, mem, 0)
	if n := len(s2.GetState().Todos); n != 0 {
		t.Fatalf("state before rehydration should be initial, got %d todos", n)
	}
	p2.Rehydrate(ctx)
	if got := s2.GetState().Todos; !sameTodos(got, want) {
		t.Fatalf("rehydrated %#v, want %#v", got, want)
	}
}

func TestPersistor_NoWritesBeforeRehydrate(t *testing.T) {
	mem := storage.NewMemoryStore()
	ctx := context.Background()
	existing := []model.Todo{todo("keep", "keep me", false)}
	blob, _ := EncodeState(model.AppState{Todos: existing})
	if err := mem.Set(ctx, "todos", blob); err != nil {
		t.Fatal(err)
	}

	s, p, writes := newTestStore(t, mem, 0)
	s.Dispatch(NewAddTodo("early"))
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if writes.Load() != 0 {
		t.Fatal("persistor wrote before rehydration")
	}
	got, _ := storedTodos(t, mem)
	if !sameTodos(got, existing) {
		t.Fatalf("stored list overwritten before rehydration: %#v", got)
	}

	p.Rehydrate(ctx)
	if !sameTodos(s.GetState().Todos, existing) {
		t.Fatalf("persisted todos should win over pre-rehydration state: %#v", s.GetState().Todos)
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, _ = storedTodos(t, mem)
	if !sameTodos(got, existing) {
		t.Fatalf("stored = %#v", got)
	}
}

func TestPersistor_RehydrateWithoutStoredDataKeepsEarlyChanges(t *testing.T) {
	mem := storage.NewMemoryStore()
	ctx := context.Background()

	s, p, _ := newTestStore(t, mem, 0)
	s.Dispatch(NewAddTodo("early"))
	p.Rehydrate(ctx)
	if n := len(s.GetState().Todos); n != 1 {
		t.Fatalf("absent persisted key must keep current todos, len = %d", n)
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, ok := storedTodos(t, mem)
	if !ok || len(got) != 1 || got[0].Text != "early" {
		t.Fatalf("early change not persisted after rehydration: %#v", got)
	}
}

func TestPersistor_RehydrateOnlyOnce(t *testing.T) {
	mem := storage.NewMemoryStore()
	ctx := context.Background()
	s, p, _ := newTestStore(t, mem, 0)
	p.Rehydrate(ctx)
	s.Dispatch(NewAddTodo("A"))

	other := []model.Todo{todo("x", "X", false)}
	blob, _ := EncodeState(model.AppState{Todos: other})
	if err := p.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := mem.Set(ctx, "todos", blob); err != nil {
		t.Fatal(err)
	}
	p.Rehydrate(ctx)
	if st := s.GetState(); len(st.Todos) != 1 || st.Todos[0].Text != "A" {
		t.Fatalf("second Rehydrate replaced state: %#v", st.Todos)
	}
}

func TestPersistor_BackgroundWrites(t *testing.T) {
	mem := storage.NewMemoryStore()
	ctx := context.Background()
	s, p, _ := newTestStore(t, mem, 0)
	p.Rehydrate(ctx)

	a := NewAddTodo("A")
	s.Dispatch(a)

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, ok := storedTodos(t, mem)
		if ok && len(got) == 1 && got[0].ID == a.ID {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("background write never happened, stored %#v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPersistor_ThrottleCoalescesWrites(t *testing.T) {
	mem := storage.NewMemoryStore()
	ctx := context.Background()
	s, p, writes := newTestStore(t, mem, time.Hour)
	p.Rehydrate(ctx)

	for i := 0; i < 10; i++ {
		s.Dispatch(NewAddTodo("x"))
	}
	if writes.Load() != 0 {
		t.Fatalf("throttled persistor wrote %d times early", writes.Load())
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if writes.Load() != 1 {
		t.Fatalf("writes = %d, want a single flush on close", writes.Load())
	}
	got, _ := storedTodos(t, mem)
	if len(got) != 10 {
		t.Fatalf("stored %d todos, want 10", len(got))
	}
}

func TestPersistor_WriteFailureDoesNotBlockDispatch(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("read-only filesystem")

	var failures atomic.Int64
	s, p := Configure(Options{
		Adapter:   failingAdapter{err: boom},
		Namespace: "todos",
		OnPersist: func(err error) {
			if errors.Is(err, boom) {
				failures.Add(1)
			}
		},
	})
	p.Rehydrate(ctx)
	if s.GetState().IsLoading || len(s.GetState().Todos) != 0 {
		t.Fatal("failed read must rehydrate as empty state")
	}

	s.Dispatch(NewAddTodo("A"))
	if n := len(s.GetState().Todos); n != 1 {
		t.Fatalf("dispatch affected by write failure, len = %d", n)
	}
	if err := p.Flush(ctx); !errors.Is(err, boom) {
		t.Fatalf("Flush err = %v, want %v", err, boom)
	}
	if err := p.Close(ctx); !errors.Is(err, boom) {
		t.Fatalf("Close err = %v, want %v", err, boom)
	}
	if failures.Load() == 0 {
		t.Fatal("write failure was not reported")
	}
}

func TestPersistor_CloseReportsFailedBackgroundWrite(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("read-only filesystem")

	written := make(chan error, 8)
	s, p := Configure(Options{
		Adapter:   failingAdapter{err: boom},
		Namespace: "todos",
		OnPersist: func(err error) { written <- err },
	})
	p.Rehydrate(ctx)
	s.Dispatch(NewAddTodo("A"))

	select {
	case err := <-written:
		if !errors.Is(err, boom) {
			t.Fatalf("background write err = %v, want %v", err, boom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("background write did not run")
	}

	if err := p.Close(ctx); !errors.Is(err, boom) {
		t.Fatalf("Close err = %v, want %v", err, boom)
	}
}

func TestPersistor_CloseRetriesFailedWrite(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	flaky := &flakyAdapter{Adapter: mem}
	flaky.failing.Store(true)

	s, p := Configure(Options{Adapter: flaky, Namespace: "todos", Throttle: time.Hour})
	p.Rehydrate(ctx)
	s.Dispatch(NewAddTodo("A"))
	if err := p.Flush(ctx); err == nil {
		t.Fatal("Flush succeeded on a failing adapter")
	}

	flaky.failing.Store(false)
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close err = %v", err)
	}
	got, ok := storedTodos(t, mem)
	if !ok || len(got) != 1 || got[0].Text != "A" {
		t.Fatalf("stored = %+v, %v", got, ok)
	}
}

func TestPersistor_ConcurrentRehydrateMergesOnce(t *testing.T) {
	mem := storage.NewMemoryStore()
	blob, err := EncodeState(model.AppState{Todos: []model.Todo{todo("a", "A", false)}})
	if err != nil {
		t.Fatal(err)
	}
	if err := mem.Set(context.Background(), "todos", blob); err != nil {
		t.Fatal(err)
	}

	var merges atomic.Int64
	countRehydrate := func(_ func() model.AppState, next Dispatch) Dispatch {
		return func(a Action) {
			if _, ok := a.(Rehydrate); ok {
				merges.Add(1)
			}
			next(a)
		}
	}
	s, p := Configure(Options{Adapter: mem, Namespace: "todos", Middleware: []Middleware{countRehydrate}})
	defer p.Close(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Rehydrate(context.Background())
			if !p.Rehydrated() {
				t.Error("Rehydrate returned before rehydration finished")
			}
		}()
	}
	wg.Wait()

	if n := merges.Load(); n != 1 {
		t.Fatalf("Rehydrate dispatched %d times, want 1", n)
	}
	if n := len(s.GetState().Todos); n != 1 {
		t.Fatalf("len(todos) = %d, want 1", n)
	}
}

// flakyAdapter fails writes while failing is set.
type flakyAdapter struct {
	storage.Adapter
	failing atomic.Bool
}

func (f *flakyAdapter) Set(ctx context.Context, ns string, blob []byte) error {
	if f.failing.Load() {
		return errors.New("disk full")
	}
	return f.Adapter.Set(ctx, ns, blob)
}

func TestPersistor_CloseIsIdempotent(t *testing.T) {
	_, p, _ := newTestStore(t, storage.NewMemoryStore(), 0)
	p.Rehydrate(context.Background())
	if err := p.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}
