// Package kvstore persists application state as independent JSON values
// under string keys.
//
// Each key is read and written on its own. There is no multi-key
// transaction: a crash between two writes leaves the first one committed.
// Readers never see a decode error; a missing or corrupt value falls back
// to the caller's default and a warning is logged.
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
)

// Errors for store operations.
var (
	ErrNotFound   = errors.New("key not found")
	ErrInvalidKey = errors.New("invalid key: must be alphanumeric with hyphens/underscores/dots")
	ErrClosed     = errors.New("store closed")
)

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Store is a string-keyed byte store.
type Store interface {
	// Get returns the raw value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ValidateKey checks that a key is usable as a file name and a table key.
func ValidateKey(key string) error {
	if key == "" || len(key) > 128 {
		return ErrInvalidKey
	}
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	if filepath.Clean(key) != key {
		return ErrInvalidKey
	}
	return nil
}

var jsonNull = []byte("null")

// Read decodes the JSON value stored under key into a T.
//
// def is returned when the key is absent, holds JSON null, or cannot be
// decoded as a T. Decode failures are logged at warn level and otherwise
// swallowed.
func Read[T any](ctx context.Context, s Store, key string, def T, logger *zap.Logger) T {
	if logger == nil {
		logger = zap.NewNop()
	}

	raw, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("reading stored value failed, using default",
				zap.String("key", key), zap.Error(err))
		}
		return def
	}

	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn("stored value is corrupt, using default",
			zap.String("key", key), zap.Error(err))
		return def
	}
	return v
}

// Write JSON-encodes value and stores it under key.
func Write[T any](ctx context.Context, s Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Key binds a store key to a value type and its default.
type Key[T any] struct {
	store  Store
	name   string
	def    func() T
	logger *zap.Logger
}

// NewKey returns a typed accessor for name. def is called for every
// fallback so callers never share a mutable default.
func NewKey[T any](s Store, name string, def func() T, logger *zap.Logger) *Key[T] {
	return &Key[T]{store: s, name: name, def: def, logger: logger}
}

// Name returns the store key.
func (k *Key[T]) Name() string { return k.name }

// Get reads the current value or the default.
func (k *Key[T]) Get(ctx context.Context) T {
	return Read(ctx, k.store, k.name, k.def(), k.logger)
}

// Set commits v.
func (k *Key[T]) Set(ctx context.Context, v T) error {
	return Write(ctx, k.store, k.name, v)
}

// Clear removes the key so the next Get returns the default.
func (k *Key[T]) Clear(ctx context.Context) error {
	return k.store.Delete(ctx, k.name)
}
