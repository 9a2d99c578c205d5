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

const (
	doubleLine = "\u2550" // ═
	singleLine = "\u2500" // ─
	lineWidth  = 50
)

// TextReporter outputs plain terminal text.
type TextReporter struct{}

// Format returns "text".
func (r *TextReporter) Format() string {
	return "text"
}

// write checks ctx, renders body between a titled header and a closing bar,
// and writes the result to w in one call.
func (r *TextReporter) write(ctx context.Context, w io.Writer, title string, body func(b *strings.Builder)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := &strings.Builder{}
	doubleBar := strings.Repeat(doubleLine, lineWidth)

	fmt.Fprintln(b, doubleBar)
	fmt.Fprintln(b, title)
	fmt.Fprintln(b, doubleBar)
	body(b)
	fmt.Fprintln(b, doubleBar)

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *TextReporter) Positions(ctx context.Context, w io.Writer, resp *preferences.PositionsResponse) error {
	return r.write(ctx, w, "Positions", func(b *strings.Builder) {
		singleBar := strings.Repeat(singleLine, lineWidth)
		if len(resp.Positions) == 0 {
			fmt.Fprintln(b, "No positions yet. Create one before configuring a search.")
		}
		for i, p := range resp.Positions {
			if i > 0 {
				fmt.Fprintln(b, singleBar)
			}
			fmt.Fprintf(b, "[%d] %s\n", p.PositionID, p.Title)
			if p.Salary != "" {
				fmt.Fprintf(b, "  Salary:  %s %s\n", p.Salary, p.Currency)
			}
			if p.Location != nil && *p.Location != "" {
				fmt.Fprintf(b, "  Location: %s\n", *p.Location)
			}
			fmt.Fprintf(b, "  Remote:  %s\n", yesNo(p.Remote))
			fmt.Fprintf(b, "  Active:  %s\n", yesNo(p.Status))
		}
		fmt.Fprintln(b, singleBar)
		fmt.Fprintf(b, "Summary: %d of %d position(s) used\n", resp.PositionsCount, resp.PositionsMaxCount)
	})
}

func (r *TextReporter) Preferences(ctx context.Context, w io.Writer, p *preferences.SearchPreferences) error {
	return r.write(ctx, w, fmt.Sprintf("Search preferences for position %d", p.PositionID), func(b *strings.Builder) {
		fmt.Fprintf(b, "Keywords:    %s\n", list(p.Keywords))
		fmt.Fprintf(b, "Exclude:     %s\n", list(p.ExcludeWords))
		fmt.Fprintf(b, "Search in:   %s\n", list(preferences.BuildSearchIn(p.SearchInTitle, p.SearchInDescription)))
		fmt.Fprintf(b, "Industries:  %s\n", list(p.SelectedIndustries))
		fmt.Fprintf(b, "Experience:  %s\n", orDash(p.ExperienceLevel))
		if p.ManualQueryEnabled != nil {
			fmt.Fprintf(b, "Manual query: %s\n", onOff(*p.ManualQueryEnabled))
		}
	})
}

func (r *TextReporter) Count(ctx context.Context, w io.Writer, total preferences.TotalVacancies) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Vacancies for position %d: %d\n", total.PositionID, total.TotalVacancies)
	return err
}

func (r *TextReporter) ManualQuery(ctx context.Context, w io.Writer, positionID int, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Manual query for position %d: %s\n", positionID, onOff(enabled))
	return err
}

func (r *TextReporter) Industries(ctx context.Context, w io.Writer, items []preferences.Industry) error {
	return r.write(ctx, w, "Industries", func(b *strings.Builder) {
		for _, ind := range items {
			if ind.NameEn != "" {
				fmt.Fprintf(b, "  %-12s %s (%s)\n", ind.ID, ind.Name, ind.NameEn)
			} else {
				fmt.Fprintf(b, "  %-12s %s\n", ind.ID, ind.Name)
			}
		}
		fmt.Fprintf(b, "Total: %d\n", len(items))
	})
}

func (r *TextReporter) Experiences(ctx context.Context, w io.Writer, items []preferences.Experience) error {
	return r.write(ctx, w, "Experience levels", func(b *strings.Builder) {
		for _, e := range items {
			fmt.Fprintf(b, "  %-14s %s\n", e.ID, e.Name)
		}
		fmt.Fprintf(b, "Total: %d\n", len(items))
	})
}

func (r *TextReporter) Settings(ctx context.Context, w io.Writer, s settings.LocalSettings, savedAt time.Time) error {
	return r.write(ctx, w, "Local search settings", func(b *strings.Builder) {
		fmt.Fprintf(b, "Keywords:    %s\n", orDash(s.Keywords))
		fmt.Fprintf(b, "Exclude:     %s\n", orDash(s.ExcludeWords))
		fmt.Fprintf(b, "Title:       %s\n", yesNo(s.SearchInTitle))
		fmt.Fprintf(b, "Description: %s\n", yesNo(s.SearchInDescription))
		fmt.Fprintf(b, "Industries:  %s\n", list(s.SelectedIndustries))
		fmt.Fprintf(b, "Experience:  %s\n", orDash(s.ExperienceLevel))
		if !savedAt.IsZero() {
			fmt.Fprintf(b, "Saved:       %s\n", savedAt.Local().Format(time.DateTime))
		}
	})
}

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, "; ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
