// Package flow composes the settings manager and the synchronizer into the
// operations a user interface triggers: saving settings and refreshing the
// vacancy count. Errors are both returned and recorded so a UI can render
// the last outcome.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/0x6d61/sofictl/internal/preferences"
	"github.com/0x6d61/sofictl/internal/settings"
)

// ErrNoPositions is returned by Save when the user has no position to
// attach the preferences to.
var ErrNoPositions = errors.New("no positions found")

// State is a snapshot of the last flow outcome.
type State struct {
	PositionID int
	Count      int
	Err        error
	Loading    bool
}

// Session is safe for concurrent use; overlapping flows are not serialized.
type Session struct {
	settings *settings.Manager
	sync     *preferences.Synchronizer
	logger   *slog.Logger

	mu         sync.Mutex
	positionID int
	count      int
	err        error
	inFlight   int
}

// NewSession returns a Session with no cached position.
func NewSession(m *settings.Manager, s *preferences.Synchronizer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{settings: m, sync: s, logger: logger}
}

// State returns the last recorded outcome.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{PositionID: s.positionID, Count: s.count, Err: s.err, Loading: s.inFlight > 0}
}

// ClearError forgets the last recorded error.
func (s *Session) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

func (s *Session) begin() {
	s.mu.Lock()
	s.inFlight++
	s.err = nil
	s.mu.Unlock()
}

func (s *Session) end(count int, err error) {
	s.mu.Lock()
	s.inFlight--
	s.count = count
	s.err = err
	s.mu.Unlock()
}

// PositionID returns the id of the user's first position, looked up once
// and cached.
func (s *Session) PositionID(ctx context.Context) (int, error) {
	s.mu.Lock()
	cached := s.positionID
	s.mu.Unlock()
	if cached != 0 {
		return cached, nil
	}

	resp, err := s.sync.ListPositions(ctx)
	if err != nil {
		return 0, err
	}
	if len(resp.Positions) == 0 {
		return 0, ErrNoPositions
	}
	id := resp.Positions[0].PositionID

	s.mu.Lock()
	s.positionID = id
	s.mu.Unlock()
	return id, nil
}

// Save persists the local settings, pushes them to the current position and
// refreshes the count. A failed count leaves the save successful with a
// count of zero.
func (s *Session) Save(ctx context.Context) (int, error) {
	s.begin()

	s.settings.Persist(ctx)
	local := s.settings.Settings()

	positionID, err := s.PositionID(ctx)
	if err != nil {
		s.end(0, err)
		return 0, err
	}

	prefs := s.sync.FromSettings(ctx, local)
	if _, err := s.sync.UpdatePreferences(ctx, positionID, prefs); err != nil {
		s.end(0, err)
		return 0, err
	}

	count := 0
	total, err := s.sync.GetTotalVacancies(ctx, positionID, &prefs)
	if err != nil {
		s.logger.Warn("settings saved but vacancy count failed", "position_id", positionID, "error", err)
	} else {
		count = total.TotalVacancies
	}

	s.end(count, nil)
	s.logger.Info("settings saved", "position_id", positionID, "vacancies", count)
	return count, nil
}

// FetchCount syncs the current settings to the cached position and returns
// the vacancy count for it. A user without positions gets zero. On failure
// the recorded count drops to zero.
func (s *Session) FetchCount(ctx context.Context) (preferences.TotalVacancies, error) {
	s.begin()

	positionID, err := s.PositionID(ctx)
	if errors.Is(err, ErrNoPositions) {
		s.logger.Warn("user has no positions")
		s.end(0, nil)
		return preferences.TotalVacancies{}, nil
	}
	if err != nil {
		s.end(0, err)
		return preferences.TotalVacancies{}, err
	}

	count, err := s.sync.PositionVacanciesCount(ctx, positionID, s.settings.Settings())
	if err != nil {
		s.end(0, err)
		return preferences.TotalVacancies{PositionID: positionID}, err
	}
	s.end(count, nil)
	return preferences.TotalVacancies{TotalVacancies: count, PositionID: positionID}, nil
}
