package docs

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

// Store owns the process-wide dataset reference. Readers always see a complete
// table: a reload builds a fresh Dataset and swaps the pointer, never mutating
// the one in flight.
type Store struct {
	current atomic.Pointer[Dataset]
	logger  *zap.Logger
}

// NewStore creates a store holding the bundled dataset.
func NewStore(logger *zap.Logger) (*Store, error) {
	ds, err := LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("loading bundled documentation: %w", err)
	}

	s := &Store{logger: logger}
	s.current.Store(ds)
	logger.Info("documentation loaded",
		zap.Int("plugins", len(ds.Plugins())),
		zap.Int("instructions", len(ds.Instructions())),
		zap.String("scraped", ds.Date()))
	return s, nil
}

// Current returns the active dataset. Never nil once the store is constructed.
func (s *Store) Current() *Dataset {
	return s.current.Load()
}

// Reload swaps in a dataset parsed from raw. On failure the previous dataset
// stays active and the error is returned for the caller to report.
func (s *Store) Reload(raw []byte) error {
	ds, err := Load(raw)
	if err != nil {
		s.logger.Warn("documentation reload failed, keeping previous dataset", zap.Error(err))
		return err
	}

	s.current.Store(ds)
	s.logger.Info("documentation reloaded",
		zap.Int("plugins", len(ds.Plugins())),
		zap.Int("instructions", len(ds.Instructions())))
	return nil
}

// ReloadDefault swaps back to the documentation bundled with the binary.
func (s *Store) ReloadDefault() error {
	return s.Reload(defaultData)
}

// ReloadFile reloads from a dataset document on disk. An unreadable path is
// treated like a malformed document: the previous dataset stays active.
func (s *Store) ReloadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("documentation file unreadable, keeping previous dataset",
			zap.String("path", path), zap.Error(err))
		return fmt.Errorf("reading documentation file: %w", err)
	}
	return s.Reload(raw)
}
