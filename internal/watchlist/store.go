package watchlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"nexusflow/pkg/model"
)

var (
	// ErrNotFound is returned when removing a symbol that is not listed
	ErrNotFound = errors.New("symbol not in watchlist")
	// ErrInvalidSymbol is returned for empty or malformed symbols
	ErrInvalidSymbol = errors.New("invalid symbol")
)

const maxSymbolLen = 20

// file is the on-disk layout
type file struct {
	Symbols []string `yaml:"symbols"`
}

// Store is an ordered, de-duplicated list of symbols, optionally persisted
// to a YAML file. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	symbols []string
}

// NewStore creates an in-memory store seeded with defaults
func NewStore(defaults []string) *Store {
	s := &Store{}
	for _, sym := range defaults {
		if norm, err := Normalize(sym); err == nil && !slices.Contains(s.symbols, norm) {
			s.symbols = append(s.symbols, norm)
		}
	}
	return s
}

// Open loads the watchlist at path. A missing file yields the defaults,
// which are written on the first change.
func Open(path string, defaults []string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s := NewStore(defaults)
		s.path = path
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing watchlist %s: %w", path, err)
	}

	s := NewStore(f.Symbols)
	s.path = path
	return s, nil
}

// Normalize trims and upper-cases a symbol and checks its characters.
// Yahoo style tickers such as GC=F, EURUSD=X, BTC-USD and ^GSPC are valid.
func Normalize(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSymbol)
	}
	if len(s) > maxSymbolLen {
		return "", fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidSymbol, s, maxSymbolLen)
	}
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '-', c == '=', c == '^':
		default:
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidSymbol, s, c)
		}
	}
	return s, nil
}

// List returns a copy of the symbols in insertion order
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.symbols)
}

// Contains reports whether the symbol is listed
func (s *Store) Contains(symbol string) bool {
	norm, err := Normalize(symbol)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.symbols, norm)
}

// Add appends a symbol. Adding a listed symbol is a no-op and reports false.
func (s *Store) Add(symbol string) (bool, error) {
	norm, err := Normalize(symbol)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.symbols, norm) {
		return false, nil
	}
	s.symbols = append(s.symbols, norm)
	if err := s.saveLocked(); err != nil {
		s.symbols = s.symbols[:len(s.symbols)-1]
		return false, err
	}
	return true, nil
}

// Remove deletes a symbol, returning ErrNotFound if it is not listed
func (s *Store) Remove(symbol string) error {
	norm, err := Normalize(symbol)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.Index(s.symbols, norm)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, norm)
	}
	prev := s.symbols
	s.symbols = slices.Delete(slices.Clone(s.symbols), idx, idx+1)
	if err := s.saveLocked(); err != nil {
		s.symbols = prev
		return err
	}
	return nil
}

// Instruments returns the symbols with display names
func (s *Store) Instruments() []model.Instrument {
	syms := s.List()
	out := make([]model.Instrument, len(syms))
	for i, sym := range syms {
		out[i] = model.Instrument{Symbol: sym, Name: DisplayName(sym)}
	}
	return out
}

// saveLocked persists the list. The caller holds the write lock.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(file{Symbols: s.symbols})
	if err != nil {
		return fmt.Errorf("encoding watchlist: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating watchlist dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing watchlist: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing watchlist: %w", err)
	}
	return nil
}
