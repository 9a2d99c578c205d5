// Package report renders positions, preferences, counts, catalogs and local
// settings for the terminal.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/0x6d61/sofictl/internal/preferences"
	"github.com/0x6d61/sofictl/internal/settings"
)

// Reporter writes one view in a specific format.
type Reporter interface {
	// Format returns the format name (e.g., "text", "json").
	Format() string

	Positions(ctx context.Context, w io.Writer, resp *preferences.PositionsResponse) error
	Preferences(ctx context.Context, w io.Writer, prefs *preferences.SearchPreferences) error
	Count(ctx context.Context, w io.Writer, total preferences.TotalVacancies) error
	ManualQuery(ctx context.Context, w io.Writer, positionID int, enabled bool) error
	Industries(ctx context.Context, w io.Writer, list []preferences.Industry) error
	Experiences(ctx context.Context, w io.Writer, list []preferences.Experience) error

	// Settings renders local settings. A zero savedAt is omitted.
	Settings(ctx context.Context, w io.Writer, s settings.LocalSettings, savedAt time.Time) error
}

// New creates a reporter by format name ("text" or "json").
// The format name is case-insensitive.
func New(format string) (Reporter, error) {
	switch strings.ToLower(format) {
	case "text":
		return &TextReporter{}, nil
	case "json":
		return &JSONReporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %q", format)
	}
}
