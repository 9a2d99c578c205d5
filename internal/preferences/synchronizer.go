// Package preferences translates between the UI-facing local settings and
// the backend's canonical search preferences, and normalizes the several
// response shapes the backend is known to produce.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/0x6d61/sofictl/internal/settings"
)

// Caller sends an authenticated request and returns the raw response body.
// *gateway.Gateway satisfies it.
type Caller interface {
	Call(ctx context.Context, op, method, path string, in any) ([]byte, error)
}

// Synchronizer is safe for concurrent use. Errors from Caller are returned
// unmodified and never retried.
type Synchronizer struct {
	api    Caller
	logger *slog.Logger

	mu                sync.Mutex
	industries        []Industry
	industriesLoaded  bool
	experiences       []Experience
	experiencesLoaded bool

	catalogs singleflight.Group
}

// New returns a Synchronizer with empty catalog caches.
func New(api Caller, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{api: api, logger: logger}
}

func (s *Synchronizer) call(ctx context.Context, op, method, path string, in, out any) error {
	body, err := s.api.Call(ctx, op, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// ListPositions fetches every position of the current user. An empty list
// is not an error.
func (s *Synchronizer) ListPositions(ctx context.Context) (*PositionsResponse, error) {
	var resp PositionsResponse
	if err := s.call(ctx, "list positions", http.MethodGet, "/positions", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Positions == nil {
		resp.Positions = []Position{}
	}
	if len(resp.Positions) > 0 {
		s.logger.Debug("positions loaded", "count", len(resp.Positions), "first", resp.Positions[0])
	}
	return &resp, nil
}

func preferencesPath(positionID int) string {
	return fmt.Sprintf("/positions/%d/preferences", positionID)
}

// GetPreferences fetches the canonical preferences of a position.
func (s *Synchronizer) GetPreferences(ctx context.Context, positionID int) (*SearchPreferences, error) {
	var prefs SearchPreferences
	if err := s.call(ctx, "get preferences", http.MethodGet, preferencesPath(positionID), nil, &prefs); err != nil {
		return nil, err
	}
	prefs.normalize()
	return &prefs, nil
}

// UpdatePreferences replaces the preferences of a position. The payload's
// position id is always positionID, whatever prefs carries.
func (s *Synchronizer) UpdatePreferences(ctx context.Context, positionID int, prefs SearchPreferences) (*SearchPreferences, error) {
	prefs.PositionID = positionID
	prefs.normalize()

	var updated SearchPreferences
	if err := s.call(ctx, "update preferences", http.MethodPut, preferencesPath(positionID), prefs, &updated); err != nil {
		return nil, err
	}
	updated.normalize()
	return &updated, nil
}

// ToggleManualQuery flips the manual query flag and returns the state the
// backend reports.
func (s *Synchronizer) ToggleManualQuery(ctx context.Context, positionID int) (bool, error) {
	var state manualQueryState
	path := preferencesPath(positionID) + "/manual_query/toggle"
	if err := s.call(ctx, "toggle manual query", http.MethodPost, path, nil, &state); err != nil {
		return false, err
	}
	return state.ManualQueryEnabled, nil
}

// GetTotalVacancies counts the vacancies matching prefs for a position. A nil
// prefs fetches the stored preferences first. Unrecognised response shapes
// yield zero with a warning.
func (s *Synchronizer) GetTotalVacancies(ctx context.Context, positionID int, prefs *SearchPreferences) (TotalVacancies, error) {
	if prefs == nil {
		fetched, err := s.GetPreferences(ctx, positionID)
		if err != nil {
			return TotalVacancies{}, err
		}
		prefs = fetched
	}

	req := totalVacanciesRequest{
		Keywords:            orEmpty(prefs.Keywords),
		ExcludeKeywords:     orEmpty(prefs.ExcludeWords),
		SearchIn:            BuildSearchIn(prefs.SearchInTitle, prefs.SearchInDescription),
		Specializations:     []string{},
		Industries:          s.TranslateIndustries(ctx, orEmpty(prefs.SelectedIndustries)),
		ExcludedEmployerIDs: []string{},
		Experience:          []string{},
	}
	if prefs.ExperienceLevel != "" {
		req.Experience = []string{prefs.ExperienceLevel}
	}

	const op = "get total vacancies"
	path := fmt.Sprintf("/positions/get-total-vacancies?position_id=%d", positionID)
	body, err := s.api.Call(ctx, op, http.MethodPost, path, req)
	if err != nil {
		return TotalVacancies{}, err
	}

	result, shape, err := decodeTotal(body, positionID)
	if err != nil {
		return TotalVacancies{}, fmt.Errorf("%s: %w", op, err)
	}
	if shape == "" {
		s.logger.Warn("unexpected vacancy count response shape, assuming zero",
			"position_id", positionID, "body", truncate(body))
	} else {
		s.logger.Debug("vacancy count", "shape", shape, "total", result.TotalVacancies, "position_id", result.PositionID)
	}
	return result, nil
}

// Industries returns the industries catalog, fetched at most once per
// Synchronizer. Failed fetches are not cached.
func (s *Synchronizer) Industries(ctx context.Context) ([]Industry, error) {
	s.mu.Lock()
	if s.industriesLoaded {
		cached := s.industries
		s.mu.Unlock()
		return slices.Clone(cached), nil
	}
	s.mu.Unlock()

	v, err, _ := s.catalogs.Do("industries", func() (any, error) {
		const op = "get industries"
		body, err := s.api.Call(ctx, op, http.MethodGet, "/industries", nil)
		if err != nil {
			return nil, err
		}
		list, ok, err := decodeIndustries(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			s.logger.Warn("unexpected industries response shape", "body", truncate(body))
		}

		s.mu.Lock()
		s.industries, s.industriesLoaded = list, true
		s.mu.Unlock()
		s.logger.Debug("industries loaded", "count", len(list))
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]Industry)), nil
}

// Experiences returns the experience-level catalog, cached like Industries.
func (s *Synchronizer) Experiences(ctx context.Context) ([]Experience, error) {
	s.mu.Lock()
	if s.experiencesLoaded {
		cached := s.experiences
		s.mu.Unlock()
		return slices.Clone(cached), nil
	}
	s.mu.Unlock()

	v, err, _ := s.catalogs.Do("experiences", func() (any, error) {
		const op = "get experiences"
		body, err := s.api.Call(ctx, op, http.MethodGet, "/positions/experiences", nil)
		if err != nil {
			return nil, err
		}
		list, ok, err := decodeExperiences(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			s.logger.Warn("unexpected experiences response shape", "body", truncate(body))
		}

		s.mu.Lock()
		s.experiences, s.experiencesLoaded = list, true
		s.mu.Unlock()
		s.logger.Debug("experiences loaded", "count", len(list))
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]Experience)), nil
}

// TranslateIndustries maps industry labels to IDs by exact match on the
// primary or English name. Unresolved labels are passed through as if they
// were IDs. If the catalog cannot be fetched the input is returned as is.
func (s *Synchronizer) TranslateIndustries(ctx context.Context, labels []string) []string {
	out := slices.Clone(orEmpty(labels))
	if len(out) == 0 {
		return out
	}

	catalog, err := s.Industries(ctx)
	if err != nil {
		s.logger.Warn("industry catalog unavailable, sending labels unchanged", "error", err)
		return out
	}

	for i, label := range out {
		idx := slices.IndexFunc(catalog, func(ind Industry) bool {
			return ind.Name == label || (ind.NameEn != "" && ind.NameEn == label)
		})
		if idx >= 0 {
			out[i] = catalog[idx].ID
		}
	}
	return out
}

// FromSettings converts local settings to canonical preferences: free text
// is tokenized and industry labels are translated to IDs.
func (s *Synchronizer) FromSettings(ctx context.Context, local settings.LocalSettings) SearchPreferences {
	return SearchPreferences{
		Keywords:            Tokenize(local.Keywords),
		SearchInTitle:       local.SearchInTitle,
		SearchInDescription: local.SearchInDescription,
		ExcludeWords:        Tokenize(local.ExcludeWords),
		SelectedIndustries:  s.TranslateIndustries(ctx, local.SelectedIndustries),
		ExperienceLevel:     local.ExperienceLevel,
	}
}

// SyncSettings pushes local settings to a position. It must run before a
// count that should reflect unsaved local edits.
func (s *Synchronizer) SyncSettings(ctx context.Context, positionID int, local settings.LocalSettings) (*SearchPreferences, error) {
	updated, err := s.UpdatePreferences(ctx, positionID, s.FromSettings(ctx, local))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("search settings synchronized", "position_id", positionID)
	return updated, nil
}

// VacanciesCount syncs local settings to the user's first position and
// counts the matching vacancies. A user without positions gets zero.
func (s *Synchronizer) VacanciesCount(ctx context.Context, local settings.LocalSettings) (int, error) {
	positions, err := s.ListPositions(ctx)
	if err != nil {
		return 0, err
	}
	if len(positions.Positions) == 0 {
		s.logger.Warn("user has no positions")
		return 0, nil
	}
	return s.PositionVacanciesCount(ctx, positions.Positions[0].PositionID, local)
}

// PositionVacanciesCount is VacanciesCount for a known position.
func (s *Synchronizer) PositionVacanciesCount(ctx context.Context, positionID int, local settings.LocalSettings) (int, error) {
	if _, err := s.SyncSettings(ctx, positionID, local); err != nil {
		return 0, err
	}
	prefs := s.FromSettings(ctx, local)
	total, err := s.GetTotalVacancies(ctx, positionID, &prefs)
	if err != nil {
		return 0, err
	}
	return total.TotalVacancies, nil
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
