// Package settings holds the user's locally edited search settings and the
// key-value persistence seam they are saved through.
package settings

import (
	"slices"
)

// StorageKey is the fixed key the settings document is stored under.
const StorageKey = "sofi-search-settings"

// LocalSettings is the UI-facing form of the search filters: free text for
// keywords and excluded words, human-readable industry labels.
type LocalSettings struct {
	Keywords            string   `json:"keywords"`
	SearchInTitle       bool     `json:"searchInTitle"`
	SearchInDescription bool     `json:"searchInDescription"`
	ExcludeWords        string   `json:"excludeWords"`
	SelectedIndustries  []string `json:"selectedIndustries"`
	ExperienceLevel     string   `json:"experienceLevel"`
}

// Defaults returns the settings a new user starts with.
func Defaults() LocalSettings {
	return LocalSettings{
		SearchInTitle:      true,
		SelectedIndustries: []string{},
	}
}

// Clone returns a copy that shares no slices with s.
func (s LocalSettings) Clone() LocalSettings {
	c := s
	c.SelectedIndustries = slices.Clone(s.SelectedIndustries)
	if c.SelectedIndustries == nil {
		c.SelectedIndustries = []string{}
	}
	return c
}

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	Keywords            *string
	SearchInTitle       *bool
	SearchInDescription *bool
	ExcludeWords        *string
	SelectedIndustries  []string
	ExperienceLevel     *string
}

// Apply returns s with the non-nil fields of p applied.
func (p Patch) Apply(s LocalSettings) LocalSettings {
	out := s.Clone()
	if p.Keywords != nil {
		out.Keywords = *p.Keywords
	}
	if p.SearchInTitle != nil {
		out.SearchInTitle = *p.SearchInTitle
	}
	if p.SearchInDescription != nil {
		out.SearchInDescription = *p.SearchInDescription
	}
	if p.ExcludeWords != nil {
		out.ExcludeWords = *p.ExcludeWords
	}
	if p.SelectedIndustries != nil {
		out.SelectedIndustries = slices.Clone(p.SelectedIndustries)
	}
	if p.ExperienceLevel != nil {
		out.ExperienceLevel = *p.ExperienceLevel
	}
	return out
}

// legacyDefaultIndustries was pre-selected for every user by earlier
// releases. A stored selection equal to it was never chosen by the user.
var legacyDefaultIndustries = []string{
	"Аналитик",
	"Гейм-дизайнер",
	"Дизайнер, художник",
	"Менеджер продукта",
	"Программист, разработчик",
	"Продуктовый аналитик",
	"Сетевой инженер",
}

// isLegacyDefault reports whether industries equals the legacy default
// selection, ignoring order.
func isLegacyDefault(industries []string) bool {
	if len(industries) == 0 || len(industries) != len(legacyDefaultIndustries) {
		return false
	}
	a := slices.Clone(industries)
	b := slices.Clone(legacyDefaultIndustries)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
