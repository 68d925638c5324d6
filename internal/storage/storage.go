// Package storage holds the persistence adapters behind the state store.
//
// An Adapter is a namespaced key-value store for one serialized blob per
// namespace. The store never looks inside the medium; it only calls Get once
// at startup (and on explicit reloads) and Set after state changes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Common errors
var (
	ErrClosed           = errors.New("storage: adapter closed")
	ErrInvalidNamespace = errors.New("storage: invalid namespace")
	ErrUnknownEngine    = errors.New("storage: unknown engine")
)

// Engine names accepted by Open.
const (
	EngineFile   = "file"
	EngineBadger = "badger"
	EngineMemory = "memory"
)

// Adapter is the key-value collaborator used for persistence.
//
// Get returns ok=false when nothing is stored under namespace.
// Implementations are safe for concurrent use.
type Adapter interface {
	Get(ctx context.Context, namespace string) (blob []byte, ok bool, err error)
	Set(ctx context.Context, namespace string, blob []byte) error
	Close() error
}

// Config selects and locates an adapter.
type Config struct {
	Engine string
	Dir    string
}

// Open returns the adapter named by cfg.Engine.
func Open(cfg Config, logger *slog.Logger) (Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(cfg.Engine) {
	case "", EngineFile:
		return NewFileStore(cfg.Dir)
	case EngineBadger:
		return NewBadgerStore(cfg.Dir, logger)
	case EngineMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}

func validateNamespace(ns string) error {
	if strings.TrimSpace(ns) == "" || strings.ContainsAny(ns, `/\`) || ns == "." || ns == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, ns)
	}
	return nil
}
