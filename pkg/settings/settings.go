// Package settings persists user preferences and pushes changes to the
// running engine.
package settings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"threadsdl/pkg/i18n"
)

// Setting keys
const (
	KeyLanguage         = "language"
	KeyDebugMode        = "debugMode"
	KeyEnablePostButton = "enablePostButton"
	KeyEnableOverlay    = "enableOverlay"
	KeyUseTimestamp     = "useTimestamp"
	KeyAddPrefix        = "addPrefix"
)

var boolKeys = map[string]bool{
	KeyDebugMode:        true,
	KeyEnablePostButton: true,
	KeyEnableOverlay:    true,
	KeyUseTimestamp:     true,
	KeyAddPrefix:        true,
}

// Keys returns every known key, sorted
func Keys() []string {
	keys := []string{KeyLanguage}
	for k := range boolKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Change is delivered to subscribers after a value is stored
type Change struct {
	Key   string
	Value string
}

// Store is a flat key-value settings store
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	// Subscribe registers fn for changes and returns its cancel function
	Subscribe(fn func(Change)) func()
	Close() error
}

// Validate checks that key is known and value has the right shape
func Validate(key, value string) error {
	if key == KeyLanguage {
		if value != i18n.Auto && !i18n.IsSupported(value) {
			return fmt.Errorf("language must be %q or one of %v, got %q", i18n.Auto, i18n.Locales(), value)
		}
		return nil
	}
	if !boolKeys[key] {
		return fmt.Errorf("unknown setting %q", key)
	}
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("setting %s expects a boolean, got %q", key, value)
	}
	return nil
}

// Settings is the typed view of a store
type Settings struct {
	Language         string `json:"language"`
	DebugMode        bool   `json:"debugMode"`
	EnablePostButton bool   `json:"enablePostButton"`
	EnableOverlay    bool   `json:"enableOverlay"`
	UseTimestamp     bool   `json:"useTimestamp"`
	AddPrefix        bool   `json:"addPrefix"`
}

// Defaults returns the values used for keys never stored
func Defaults() Settings {
	return Settings{
		Language:         i18n.Auto,
		EnablePostButton: true,
		EnableOverlay:    true,
		AddPrefix:        true,
	}
}

// Apply returns s with one stored value applied. Unknown keys and malformed
// values leave s unchanged.
func (s Settings) Apply(key, value string) Settings {
	if key == KeyLanguage {
		if Validate(key, value) == nil {
			s.Language = value
		}
		return s
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return s
	}
	switch key {
	case KeyDebugMode:
		s.DebugMode = b
	case KeyEnablePostButton:
		s.EnablePostButton = b
	case KeyEnableOverlay:
		s.EnableOverlay = b
	case KeyUseTimestamp:
		s.UseTimestamp = b
	case KeyAddPrefix:
		s.AddPrefix = b
	}
	return s
}

// Map renders s as stored values
func (s Settings) Map() map[string]string {
	return map[string]string{
		KeyLanguage:         s.Language,
		KeyDebugMode:        strconv.FormatBool(s.DebugMode),
		KeyEnablePostButton: strconv.FormatBool(s.EnablePostButton),
		KeyEnableOverlay:    strconv.FormatBool(s.EnableOverlay),
		KeyUseTimestamp:     strconv.FormatBool(s.UseTimestamp),
		KeyAddPrefix:        strconv.FormatBool(s.AddPrefix),
	}
}

// Load reads the typed settings from store, with defaults for missing keys
func Load(ctx context.Context, store Store) (Settings, error) {
	values, err := store.All(ctx)
	if err != nil {
		return Settings{}, err
	}
	s := Defaults()
	for k, v := range values {
		s = s.Apply(k, v)
	}
	return s, nil
}

// notifier fans changes out to subscribers
type notifier struct {
	mu     sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

func (n *notifier) Subscribe(fn func(Change)) func() {
	n.mu.Lock()
	if n.subs == nil {
		n.subs = make(map[int]func(Change))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier) publish(c Change) {
	n.mu.Lock()
	fns := make([]func(Change), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// MemoryStore keeps settings in process memory
type MemoryStore struct {
	notifier

	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()

	m.publish(Change{Key: key, Value: value})
	return nil
}

// All implements Store
func (m *MemoryStore) All(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

// Close implements Store
func (m *MemoryStore) Close() error { return nil }
