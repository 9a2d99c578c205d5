package preferences

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0x6d61/sofictl/internal/credentials"
	"github.com/0x6d61/sofictl/internal/gateway"
	"github.com/0x6d61/sofictl/internal/settings"
	"github.com/0x6d61/sofictl/internal/testutil"
	"github.com/0x6d61/sofictl/internal/transport"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestSync wires a Synchronizer to a fresh fake backend through a real
// gateway. Logs are captured at debug level.
func newTestSync(t *testing.T) (*Synchronizer, *testutil.Backend, *bytes.Buffer) {
	t.Helper()
	b := testutil.NewBackend()
	t.Cleanup(b.Close)

	client, err := transport.NewClient(transport.ClientOptions{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	creds := credentials.NewSessionProvider()
	creds.Set(testutil.DefaultUsername, testutil.DefaultPassword)

	logs := new(bytes.Buffer)
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	gw := gateway.New(client, gateway.Options{BaseURL: b.BaseURL(), Credentials: creds, Logger: logger})
	return New(gw, logger), b, logs
}

// lastTotal returns the decoded body and query of the most recent count call.
func lastTotal(b *testutil.Backend) (map[string]any, string) {
	b.Lock()
	defer b.Unlock()
	return b.LastTotalRequest, b.LastTotalQuery
}

func lastUpdate(b *testutil.Backend) map[string]any {
	b.Lock()
	defer b.Unlock()
	return b.LastPreferencesUpdate
}

func strs(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, _ := e.(string)
		out = append(out, s)
	}
	return out
}

// ---------------------------------------------------------------------------
// Positions and preferences
// ---------------------------------------------------------------------------

func TestListPositions(t *testing.T) {
	s, _, _ := newTestSync(t)

	resp, err := s.ListPositions(context.Background())
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(resp.Positions) != 1 {
		t.Fatalf("len(Positions) = %d, want 1", len(resp.Positions))
	}
	p := resp.Positions[0]
	if p.PositionID != 5 || p.Title != "Frontend Developer" {
		t.Errorf("position = %d %q", p.PositionID, p.Title)
	}
	if resp.PositionsCount != 1 || resp.PositionsMaxCount != 3 {
		t.Errorf("counts = %d/%d, want 1/3", resp.PositionsCount, resp.PositionsMaxCount)
	}
}

func TestListPositions_Empty(t *testing.T) {
	s, b, _ := newTestSync(t)
	b.Lock()
	b.Positions = []map[string]any{}
	b.Unlock()

	resp, err := s.ListPositions(context.Background())
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if resp.Positions == nil || len(resp.Positions) != 0 {
		t.Errorf("Positions = %#v, want empty non-nil", resp.Positions)
	}
}

func TestListPositions_DebugLogMasksUserID(t *testing.T) {
	s, _, logs := newTestSync(t)
	if _, err := s.ListPositions(context.Background()); err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	out := logs.String()
	if strings.Contains(out, "9f1c2d3e-4b5a-6789-abcd-ef0123456789") {
		t.Errorf("full user id leaked into logs: %s", out)
	}
	if !strings.Contains(out, "9f1c2d3e...") {
		t.Errorf("masked user id missing from logs: %s", out)
	}
}

func TestGetPreferences(t *testing.T) {
	s, _, _ := newTestSync(t)

	prefs, err := s.GetPreferences(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if prefs.PositionID != 5 {
		t.Errorf("PositionID = %d, want 5", prefs.PositionID)
	}
	if !slices.Equal(prefs.Keywords, []string{"vue", "typescript"}) {
		t.Errorf("Keywords = %v", prefs.Keywords)
	}
	if prefs.ExperienceLevel != "between1And3" {
		t.Errorf("ExperienceLevel = %q", prefs.ExperienceLevel)
	}
	if prefs.ManualQueryEnabled == nil || *prefs.ManualQueryEnabled {
		t.Errorf("ManualQueryEnabled = %v, want false", prefs.ManualQueryEnabled)
	}
}

func TestGetPreferences_NotFound(t *testing.T) {
	s, _, _ := newTestSync(t)

	_, err := s.GetPreferences(context.Background(), 404)
	var te *gateway.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *gateway.TransportError", err)
	}
	if te.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", te.StatusCode)
	}
}

func TestUpdatePreferences_StampsPositionID(t *testing.T) {
	s, b, _ := newTestSync(t)

	updated, err := s.UpdatePreferences(context.Background(), 5, SearchPreferences{
		PositionID: 99,
		Keywords:   []string{"go"},
	})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}

	sent := lastUpdate(b)
	if sent["position_id"] != float64(5) {
		t.Errorf("sent position_id = %v, want 5", sent["position_id"])
	}
	if updated.PositionID != 5 {
		t.Errorf("returned PositionID = %d, want 5", updated.PositionID)
	}
	if _, ok := sent["manual_query_enabled"]; ok {
		t.Error("unset manual_query_enabled should be omitted from the payload")
	}
	for _, field := range []string{"exclude_words", "selected_industries"} {
		if got, ok := sent[field].([]any); !ok || len(got) != 0 {
			t.Errorf("%s = %#v, want []", field, sent[field])
		}
	}
}

func TestToggleManualQuery(t *testing.T) {
	s, _, _ := newTestSync(t)
	ctx := context.Background()

	on, err := s.ToggleManualQuery(ctx, 5)
	if err != nil {
		t.Fatalf("ToggleManualQuery: %v", err)
	}
	if !on {
		t.Error("first toggle = false, want true")
	}
	off, err := s.ToggleManualQuery(ctx, 5)
	if err != nil {
		t.Fatalf("ToggleManualQuery: %v", err)
	}
	if off {
		t.Error("second toggle = true, want false")
	}
}

// ---------------------------------------------------------------------------
// Vacancy count
// ---------------------------------------------------------------------------

func TestGetTotalVacancies_RequestBody(t *testing.T) {
	s, b, _ := newTestSync(t)

	got, err := s.GetTotalVacancies(context.Background(), 5, &SearchPreferences{
		Keywords:            []string{"go", "kafka"},
		SearchInTitle:       true,
		SearchInDescription: true,
		ExcludeWords:        []string{"php"},
		SelectedIndustries:  []string{"Программист, разработчик", "Unknown"},
		ExperienceLevel:     "between3And6",
	})
	if err != nil {
		t.Fatalf("GetTotalVacancies: %v", err)
	}
	if got.TotalVacancies != 42 || got.PositionID != 5 {
		t.Errorf("result = %+v, want {42 5}", got)
	}

	body, query := lastTotal(b)
	if query != "5" {
		t.Errorf("position_id query = %q, want 5", query)
	}
	checks := map[string][]string{
		"keywords":              {"go", "kafka"},
		"exclude_keywords":      {"php"},
		"search_in":             {"title", "description"},
		"specializations":       {},
		"industries":            {"it", "Unknown"},
		"excluded_employer_ids": {},
		"experience":            {"between3And6"},
	}
	for field, want := range checks {
		if _, ok := body[field].([]any); !ok {
			t.Errorf("%s = %#v, want a JSON array", field, body[field])
			continue
		}
		if got := strs(body[field]); !slices.Equal(got, want) {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
}

func TestGetTotalVacancies_EmptyExperience(t *testing.T) {
	s, b, _ := newTestSync(t)

	if _, err := s.GetTotalVacancies(context.Background(), 5, &SearchPreferences{}); err != nil {
		t.Fatalf("GetTotalVacancies: %v", err)
	}
	body, _ := lastTotal(b)
	if got, ok := body["experience"].([]any); !ok || len(got) != 0 {
		t.Errorf("experience = %#v, want []", body["experience"])
	}
	if got, ok := body["search_in"].([]any); !ok || len(got) != 0 {
		t.Errorf("search_in = %#v, want []", body["search_in"])
	}
}

func TestGetTotalVacancies_FetchesPreferencesWhenNil(t *testing.T) {
	s, b, _ := newTestSync(t)

	if _, err := s.GetTotalVacancies(context.Background(), 5, nil); err != nil {
		t.Fatalf("GetTotalVacancies: %v", err)
	}
	if got := b.Calls(testutil.RoutePrefsGet); got != 1 {
		t.Errorf("preferences fetches = %d, want 1", got)
	}
	body, _ := lastTotal(b)
	if got := strs(body["keywords"]); !slices.Equal(got, []string{"vue", "typescript"}) {
		t.Errorf("keywords = %q, want stored preferences", got)
	}
	if got := strs(body["exclude_keywords"]); !slices.Equal(got, []string{"junior"}) {
		t.Errorf("exclude_keywords = %q", got)
	}
}

func TestGetTotalVacancies_ResponseShapes(t *testing.T) {
	tests := []struct {
		body     string
		want     TotalVacancies
		wantWarn bool
	}{
		{`{"count":7}`, TotalVacancies{TotalVacancies: 7, PositionID: 5}, false},
		{`7`, TotalVacancies{TotalVacancies: 7, PositionID: 5}, false},
		{`{"total":12,"position_id":5}`, TotalVacancies{TotalVacancies: 12, PositionID: 5}, false},
		{`{"foo":1}`, TotalVacancies{TotalVacancies: 0, PositionID: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			s, b, logs := newTestSync(t)
			b.SetTotalBody(tt.body)

			got, err := s.GetTotalVacancies(context.Background(), 5, &SearchPreferences{})
			if err != nil {
				t.Fatalf("GetTotalVacancies: %v", err)
			}
			if got != tt.want {
				t.Errorf("result = %+v, want %+v", got, tt.want)
			}
			warned := strings.Contains(logs.String(), "unexpected vacancy count response shape")
			if warned != tt.wantWarn {
				t.Errorf("warning emitted = %v, want %v", warned, tt.wantWarn)
			}
		})
	}
}

func TestGetTotalVacancies_InvalidJSON(t *testing.T) {
	s, b, _ := newTestSync(t)
	b.SetTotalBody(`<html>`)

	if _, err := s.GetTotalVacancies(context.Background(), 5, &SearchPreferences{}); err == nil {
		t.Error("expected an error for a non-JSON body")
	}
}

func TestGetTotalVacancies_TransportError(t *testing.T) {
	s, b, _ := newTestSync(t)
	b.SetStatus(testutil.RouteTotal, 502)

	_, err := s.GetTotalVacancies(context.Background(), 5, &SearchPreferences{})
	var te *gateway.TransportError
	if !errors.As(err, &te) || te.StatusCode != 502 {
		t.Errorf("err = %v, want TransportError 502", err)
	}
}

// ---------------------------------------------------------------------------
// Catalogs
// ---------------------------------------------------------------------------

func TestIndustries_FetchedOnce(t *testing.T) {
	s, b, _ := newTestSync(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, err := s.Industries(ctx)
		if err != nil {
			t.Fatalf("Industries #%d: %v", i, err)
		}
		if len(list) != 2 {
			t.Errorf("len = %d, want 2", len(list))
		}
	}
	if got := b.Calls(testutil.RouteIndustries); got != 1 {
		t.Errorf("industries fetches = %d, want 1", got)
	}
}

func TestIndustries_ConcurrentFetchedOnce(t *testing.T) {
	s, b, _ := newTestSync(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Industries(ctx); err != nil {
				t.Errorf("Industries: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := b.Calls(testutil.RouteIndustries); got > 1 {
		t.Errorf("industries fetches = %d, want 1", got)
	}
}

func TestIndustries_EmptyCatalogIsCached(t *testing.T) {
	s, b, _ := newTestSync(t)
	b.Lock()
	b.IndustriesBody = `{"industries":[]}`
	b.Unlock()
	ctx := context.Background()

	s.Industries(ctx)
	s.Industries(ctx)
	if got := b.Calls(testutil.RouteIndustries); got != 1 {
		t.Errorf("industries fetches = %d, want 1", got)
	}
}

func TestIndustries_ErrorNotCached(t *testing.T) {
	s, b, _ := newTestSync(t)
	ctx := context.Background()

	b.SetStatus(testutil.RouteIndustries, 500)
	if _, err := s.Industries(ctx); err == nil {
		t.Fatal("expected error while backend fails")
	}
	b.SetStatus(testutil.RouteIndustries, 0)

	list, err := s.Industries(ctx)
	if err != nil {
		t.Fatalf("Industries after recovery: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len = %d, want 2", len(list))
	}
	if got := b.Calls(testutil.RouteIndustries); got != 2 {
		t.Errorf("industries fetches = %d, want 2", got)
	}
}

func TestIndustries_UnknownShape(t *testing.T) {
	s, b, logs := newTestSync(t)
	b.Lock()
	b.IndustriesBody = `{"unexpected":true}`
	b.Unlock()

	list, err := s.Industries(context.Background())
	if err != nil {
		t.Fatalf("Industries: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len = %d, want 0", len(list))
	}
	if !strings.Contains(logs.String(), "unexpected industries response shape") {
		t.Error("expected a shape warning")
	}
}

func TestExperiences_PromotesStrings(t *testing.T) {
	s, b, _ := newTestSync(t)
	b.Lock()
	b.ExperiencesBody = `["junior","middle"]`
	b.Unlock()

	got, err := s.Experiences(context.Background())
	if err != nil {
		t.Fatalf("Experiences: %v", err)
	}
	want := []Experience{{ID: "junior", Name: "junior"}, {ID: "middle", Name: "middle"}}
	if !slices.Equal(got, want) {
		t.Errorf("Experiences = %+v, want %+v", got, want)
	}

	s.Experiences(context.Background())
	if calls := b.Calls(testutil.RouteExperiences); calls != 1 {
		t.Errorf("experiences fetches = %d, want 1", calls)
	}
}

func TestTranslateIndustries(t *testing.T) {
	s, b, _ := newTestSync(t)
	b.Lock()
	b.IndustriesBody = `[{"id":"it","name":"Программист, разработчик"}]`
	b.Unlock()

	got := s.TranslateIndustries(context.Background(), []string{"Программист, разработчик", "Unknown"})
	if want := []string{"it", "Unknown"}; !slices.Equal(got, want) {
		t.Errorf("TranslateIndustries = %q, want %q", got, want)
	}
}

func TestTranslateIndustries_EnglishName(t *testing.T) {
	s, _, _ := newTestSync(t)

	got := s.TranslateIndustries(context.Background(), []string{"Designer", "it"})
	if want := []string{"design", "it"}; !slices.Equal(got, want) {
		t.Errorf("TranslateIndustries = %q, want %q", got, want)
	}
}

func TestTranslateIndustries_CatalogFailure(t *testing.T) {
	s, b, logs := newTestSync(t)
	b.SetStatus(testutil.RouteIndustries, 503)

	in := []string{"Дизайнер, художник"}
	got := s.TranslateIndustries(context.Background(), in)
	if !slices.Equal(got, in) {
		t.Errorf("TranslateIndustries = %q, want input unchanged", got)
	}
	if !strings.Contains(logs.String(), "industry catalog unavailable") {
		t.Error("expected a fallback warning")
	}
}

func TestTranslateIndustries_EmptySkipsCatalog(t *testing.T) {
	s, b, _ := newTestSync(t)

	got := s.TranslateIndustries(context.Background(), nil)
	if got == nil || len(got) != 0 {
		t.Errorf("TranslateIndustries(nil) = %#v, want []", got)
	}
	if calls := b.Calls(testutil.RouteIndustries); calls != 0 {
		t.Errorf("industries fetches = %d, want 0", calls)
	}
}

// ---------------------------------------------------------------------------
// Local settings
// ---------------------------------------------------------------------------

func TestSyncSettings(t *testing.T) {
	s, b, _ := newTestSync(t)

	local := settings.Defaults()
	local.Keywords = "go, kafka  grpc"
	local.ExcludeWords = "php,"
	local.SelectedIndustries = []string{"Дизайнер, художник"}
	local.ExperienceLevel = "moreThan6"
	local.SearchInDescription = true

	if _, err := s.SyncSettings(context.Background(), 5, local); err != nil {
		t.Fatalf("SyncSettings: %v", err)
	}

	sent := lastUpdate(b)
	if got := strs(sent["keywords"]); !slices.Equal(got, []string{"go", "kafka", "grpc"}) {
		t.Errorf("keywords = %q", got)
	}
	if got := strs(sent["exclude_words"]); !slices.Equal(got, []string{"php"}) {
		t.Errorf("exclude_words = %q", got)
	}
	if got := strs(sent["selected_industries"]); !slices.Equal(got, []string{"design"}) {
		t.Errorf("selected_industries = %q", got)
	}
	if sent["experience_level"] != "moreThan6" {
		t.Errorf("experience_level = %v", sent["experience_level"])
	}
	if sent["search_in_title"] != true || sent["search_in_description"] != true {
		t.Errorf("search flags = %v/%v", sent["search_in_title"], sent["search_in_description"])
	}
	if sent["position_id"] != float64(5) {
		t.Errorf("position_id = %v", sent["position_id"])
	}
}

func TestVacanciesCount(t *testing.T) {
	s, b, _ := newTestSync(t)

	local := settings.Defaults()
	local.Keywords = "vue"

	n, err := s.VacanciesCount(context.Background(), local)
	if err != nil {
		t.Fatalf("VacanciesCount: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
	if got := b.Calls(testutil.RoutePrefsPut); got != 1 {
		t.Errorf("preferences updates = %d, want 1", got)
	}
	body, _ := lastTotal(b)
	if got := strs(body["keywords"]); !slices.Equal(got, []string{"vue"}) {
		t.Errorf("count used keywords %q, want local settings", got)
	}
}

func TestVacanciesCount_NoPositions(t *testing.T) {
	s, b, _ := newTestSync(t)
	b.Lock()
	b.Positions = nil
	b.Unlock()

	n, err := s.VacanciesCount(context.Background(), settings.Defaults())
	if err != nil {
		t.Fatalf("VacanciesCount: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
	if got := b.Calls(testutil.RoutePrefsPut) + b.Calls(testutil.RouteTotal); got != 0 {
		t.Errorf("unexpected follow-up calls: %d", got)
	}
}

func TestPositionVacanciesCount_SkipsPositionLookup(t *testing.T) {
	s, b, _ := newTestSync(t)
	ctx := context.Background()
	if _, err := s.ListPositions(ctx); err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	before := b.Calls(testutil.RoutePositions)

	n, err := s.PositionVacanciesCount(ctx, 5, settings.Defaults())
	if err != nil {
		t.Fatalf("PositionVacanciesCount: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
	if got := b.Calls(testutil.RoutePositions) - before; got != 0 {
		t.Errorf("positions fetched %d times, want 0", got)
	}
	b.Lock()
	query := b.LastTotalQuery
	b.Unlock()
	if query != "5" {
		t.Errorf("position_id query = %q, want 5", query)
	}
}

func TestVacanciesCount_PropagatesErrors(t *testing.T) {
	s, b, _ := newTestSync(t)
	b.SetStatus(testutil.RoutePrefsPut, 422)

	_, err := s.VacanciesCount(context.Background(), settings.Defaults())
	var te *gateway.TransportError
	if !errors.As(err, &te) || te.StatusCode != 422 {
		t.Errorf("err = %v, want TransportError 422", err)
	}
	if got := b.Calls(testutil.RouteTotal); got != 0 {
		t.Errorf("count requested after failed sync: %d", got)
	}
}

// ---------------------------------------------------------------------------
// Models
// ---------------------------------------------------------------------------

func TestPosition_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("pos", "position", Position{PositionID: 5, Title: "Go", UserID: "0123456789abcdef"})

	out := buf.String()
	if strings.Contains(out, "0123456789abcdef") {
		t.Errorf("user id leaked: %s", out)
	}
	if !strings.Contains(out, `"user_id":"01234567..."`) {
		t.Errorf("masked user id missing: %s", out)
	}
}
