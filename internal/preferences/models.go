package preferences

import (
	"encoding/json"
	"log/slog"

	"github.com/0x6d61/sofictl/internal/credentials"
)

// Position is a user-defined job-search profile.
type Position struct {
	Title            string          `json:"title"`
	Location         *string         `json:"location"`
	ResumeLink       string          `json:"resume_link"`
	Salary           string          `json:"salary"`
	Notes            string          `json:"notes"`
	Remote           bool            `json:"remote"`
	ApplyToFavorites bool            `json:"apply_to_favorites"`
	Currency         string          `json:"currency"`
	Category         *string         `json:"category"`
	Languages        []string        `json:"languages"`
	Frameworks       []string        `json:"frameworks"`
	Grade            *string         `json:"grade"`
	PositionID       int             `json:"position_id"`
	UserID           string          `json:"user_id"`
	Status           bool            `json:"status"`
	CreatedAt        string          `json:"created_at"`
	LastSearch       *string         `json:"last_search"`
	SearchResults    json.RawMessage `json:"search_results,omitempty"`
	LetterType       []string        `json:"letter_type"`
}

// LogValue keeps the owning user id out of diagnostics.
func (p Position) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("position_id", p.PositionID),
		slog.String("title", p.Title),
		slog.String("user_id", credentials.MaskUserID(p.UserID)),
		slog.Bool("status", p.Status),
	)
}

// PositionsResponse is the body of GET /positions.
type PositionsResponse struct {
	Positions         []Position `json:"positions"`
	PositionsCount    int        `json:"positions_count"`
	PositionsMaxCount int        `json:"positions_max_count"`
}

// SearchPreferences is the backend's canonical filter set for one position.
// Keywords, ExcludeWords and SelectedIndustries are token lists and IDs.
type SearchPreferences struct {
	PositionID          int      `json:"position_id"`
	Keywords            []string `json:"keywords"`
	SearchInTitle       bool     `json:"search_in_title"`
	SearchInDescription bool     `json:"search_in_description"`
	ExcludeWords        []string `json:"exclude_words"`
	SelectedIndustries  []string `json:"selected_industries"`
	ExperienceLevel     string   `json:"experience_level"`
	ManualQueryEnabled  *bool    `json:"manual_query_enabled,omitempty"`
}

// normalize replaces nil lists with empty ones so they encode as [].
func (p *SearchPreferences) normalize() {
	p.Keywords = orEmpty(p.Keywords)
	p.ExcludeWords = orEmpty(p.ExcludeWords)
	p.SelectedIndustries = orEmpty(p.SelectedIndustries)
}

// TotalVacancies is the normalized result of a vacancy count.
type TotalVacancies struct {
	TotalVacancies int `json:"total_vacancies"`
	PositionID     int `json:"position_id"`
}

// Industry is an entry of the industries catalog.
type Industry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"name_en,omitempty"`
}

// Experience is an entry of the experience-level catalog.
type Experience struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"name_en,omitempty"`
}

type manualQueryState struct {
	ManualQueryEnabled bool `json:"manual_query_enabled"`
}

// totalVacanciesRequest is the body of the count endpoint. Specializations
// and ExcludedEmployerIDs are reserved and always sent empty.
type totalVacanciesRequest struct {
	Keywords            []string `json:"keywords"`
	ExcludeKeywords     []string `json:"exclude_keywords"`
	SearchIn            []string `json:"search_in"`
	Specializations     []string `json:"specializations"`
	Industries          []string `json:"industries"`
	ExcludedEmployerIDs []string `json:"excluded_employer_ids"`
	Experience          []string `json:"experience"`
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
