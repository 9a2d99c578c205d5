package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Manager owns the working copy of LocalSettings and writes it back to the
// Store after every mutation. Storage failures are logged and swallowed: a
// lost local copy can be re-entered or re-fetched.
type Manager struct {
	store  Store
	logger *slog.Logger

	mu      sync.RWMutex
	current LocalSettings
}

// NewManager returns a Manager holding the default settings. Call Load to
// read the stored copy.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger, current: Defaults()}
}

// Settings returns a copy of the current settings.
func (m *Manager) Settings() LocalSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// Load reads the stored settings, merges them onto the defaults and applies
// the legacy-industries migration. Read or decode failures leave the
// defaults in place.
func (m *Manager) Load(ctx context.Context) LocalSettings {
	loaded := Defaults()

	raw, err := m.store.Get(ctx, StorageKey)
	switch {
	case err != nil:
		m.logger.Warn("could not read local settings, using defaults", "error", err)
	case raw != nil:
		if err := json.Unmarshal(raw, &loaded); err != nil {
			m.logger.Warn("stored settings are corrupt, using defaults", "error", err)
			loaded = Defaults()
			break
		}
		if loaded.SelectedIndustries == nil {
			loaded.SelectedIndustries = []string{}
		}
		if isLegacyDefault(loaded.SelectedIndustries) {
			m.logger.Info("clearing legacy default industry selection")
			loaded.SelectedIndustries = []string{}
			m.write(ctx, loaded)
		}
	}

	m.mu.Lock()
	m.current = loaded
	m.mu.Unlock()
	return loaded.Clone()
}

// Persist writes the current settings to the store.
func (m *Manager) Persist(ctx context.Context) {
	m.write(ctx, m.Settings())
}

func (m *Manager) write(ctx context.Context, s LocalSettings) {
	raw, err := json.Marshal(s)
	if err != nil {
		m.logger.Warn("could not encode local settings", "error", err)
		return
	}
	if err := m.store.Set(ctx, StorageKey, raw); err != nil {
		m.logger.Warn("could not persist local settings", "error", err)
	}
}

// mutate applies fn to the working copy and persists the result.
func (m *Manager) mutate(ctx context.Context, fn func(*LocalSettings)) LocalSettings {
	m.mu.Lock()
	fn(&m.current)
	snapshot := m.current.Clone()
	m.mu.Unlock()

	m.write(ctx, snapshot)
	return snapshot
}

// Update applies a partial update.
func (m *Manager) Update(ctx context.Context, p Patch) LocalSettings {
	return m.mutate(ctx, func(s *LocalSettings) { *s = p.Apply(*s) })
}

func (m *Manager) SetKeywords(ctx context.Context, keywords string) LocalSettings {
	return m.mutate(ctx, func(s *LocalSettings) { s.Keywords = keywords })
}

func (m *Manager) SetExcludeWords(ctx context.Context, words string) LocalSettings {
	return m.mutate(ctx, func(s *LocalSettings) { s.ExcludeWords = words })
}

func (m *Manager) SetIndustries(ctx context.Context, industries []string) LocalSettings {
	return m.mutate(ctx, func(s *LocalSettings) { s.SelectedIndustries = slices.Clone(industries) })
}

// RemoveIndustry drops the first occurrence of industry, if any.
func (m *Manager) RemoveIndustry(ctx context.Context, industry string) LocalSettings {
	return m.mutate(ctx, func(s *LocalSettings) {
		if i := slices.Index(s.SelectedIndustries, industry); i >= 0 {
			s.SelectedIndustries = slices.Delete(slices.Clone(s.SelectedIndustries), i, i+1)
		}
	})
}

func (m *Manager) ClearIndustries(ctx context.Context) LocalSettings {
	return m.mutate(ctx, func(s *LocalSettings) { s.SelectedIndustries = []string{} })
}

func (m *Manager) SetExperienceLevel(ctx context.Context, level string) LocalSettings {
	return m.mutate(ctx, func(s *LocalSettings) { s.ExperienceLevel = level })
}

// SetSearchIn sets both field-matching flags at once.
func (m *Manager) SetSearchIn(ctx context.Context, title, description bool) LocalSettings {
	return m.mutate(ctx, func(s *LocalSettings) {
		s.SearchInTitle = title
		s.SearchInDescription = description
	})
}

// Reset restores the defaults and removes the stored document, so the next
// Load starts from defaults too.
func (m *Manager) Reset(ctx context.Context) LocalSettings {
	m.mu.Lock()
	m.current = Defaults()
	snapshot := m.current.Clone()
	m.mu.Unlock()

	if err := m.store.Delete(ctx, StorageKey); err != nil {
		m.logger.Warn("could not clear stored settings", "error", err)
	}
	return snapshot
}

// LastSaved reports when the settings were last written, for stores that
// track it. ok is false otherwise.
func (m *Manager) LastSaved(ctx context.Context) (t time.Time, ok bool) {
	ts, isTimed := m.store.(interface {
		UpdatedAt(ctx context.Context, key string) (time.Time, error)
	})
	if !isTimed {
		return time.Time{}, false
	}
	t, err := ts.UpdatedAt(ctx, StorageKey)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}
