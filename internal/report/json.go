package report

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/0x6d61/sofictl/internal/preferences"
	"github.com/0x6d61/sofictl/internal/settings"
)

// JSONReporter outputs structured JSON.
type JSONReporter struct {
	// Compact outputs single-line JSON when true (no indentation).
	Compact bool
}

// Format returns "json".
func (r *JSONReporter) Format() string {
	return "json"
}

// jsonOutput is the top-level JSON structure.
type jsonOutput struct {
	SchemaVersion string `json:"schema_version"`
	Tool          string `json:"tool"`
	Kind          string `json:"kind"`
	Data          any    `json:"data"`
}

// jsonSettings is LocalSettings plus its save time.
type jsonSettings struct {
	settings.LocalSettings
	SavedAt *time.Time `json:"savedAt,omitempty"`
}

type jsonManualQuery struct {
	PositionID         int  `json:"position_id"`
	ManualQueryEnabled bool `json:"manual_query_enabled"`
}

func (r *JSONReporter) encode(ctx context.Context, w io.Writer, kind string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !r.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(jsonOutput{SchemaVersion: "1.0", Tool: "sofictl", Kind: kind, Data: data})
}

func (r *JSONReporter) Positions(ctx context.Context, w io.Writer, resp *preferences.PositionsResponse) error {
	return r.encode(ctx, w, "positions", resp)
}

func (r *JSONReporter) Preferences(ctx context.Context, w io.Writer, prefs *preferences.SearchPreferences) error {
	return r.encode(ctx, w, "preferences", prefs)
}

func (r *JSONReporter) Count(ctx context.Context, w io.Writer, total preferences.TotalVacancies) error {
	return r.encode(ctx, w, "count", total)
}

func (r *JSONReporter) ManualQuery(ctx context.Context, w io.Writer, positionID int, enabled bool) error {
	return r.encode(ctx, w, "manual_query", jsonManualQuery{PositionID: positionID, ManualQueryEnabled: enabled})
}

func (r *JSONReporter) Industries(ctx context.Context, w io.Writer, list []preferences.Industry) error {
	if list == nil {
		list = []preferences.Industry{}
	}
	return r.encode(ctx, w, "industries", list)
}

func (r *JSONReporter) Experiences(ctx context.Context, w io.Writer, list []preferences.Experience) error {
	if list == nil {
		list = []preferences.Experience{}
	}
	return r.encode(ctx, w, "experiences", list)
}

func (r *JSONReporter) Settings(ctx context.Context, w io.Writer, s settings.LocalSettings, savedAt time.Time) error {
	out := jsonSettings{LocalSettings: s.Clone()}
	if !savedAt.IsZero() {
		out.SavedAt = &savedAt
	}
	return r.encode(ctx, w, "settings", out)
}
