// Package testutil provides a fake vacancy-search backend for package tests.
// It implements the cookie-session login flow and the position/preferences
// endpoints, lets tests swap in alternative response shapes, and counts
// requests per route.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// SessionCookie is the name of the cookie issued by the fake login endpoint.
const SessionCookie = "sofi_session"

// Default credentials accepted by the fake backend.
const (
	DefaultUsername = "alice@example.com"
	DefaultPassword = "correct-horse"
)

// LoginResponseBody is returned on successful login. Callers must never
// surface it.
const LoginResponseBody = `{"access_token":"leaked-if-you-can-read-this","token_type":"bearer"}`

// Route names used with Calls.
const (
	RouteLogin       = "login"
	RoutePositions   = "positions"
	RoutePrefsGet    = "prefs-get"
	RoutePrefsPut    = "prefs-put"
	RouteToggle      = "toggle"
	RouteTotal       = "total"
	RouteIndustries  = "industries"
	RouteExperiences = "experiences"
)

// Backend is a fake backend served by httptest. All exported fields may be
// changed by tests between requests; access them under Lock/Unlock when the
// server is being hit concurrently.
type Backend struct {
	*httptest.Server

	mu sync.Mutex

	Username string
	Password string

	// Positions is served verbatim as the "positions" array.
	Positions []map[string]any

	// Preferences stores the last preferences document per position.
	Preferences map[int]map[string]any

	// ManualQuery holds the manual query flag per position.
	ManualQuery map[int]bool

	// Raw JSON bodies for the shape-sensitive endpoints.
	IndustriesBody  string
	ExperiencesBody string
	TotalBody       string

	// ForceStatus makes the named route answer with this status.
	ForceStatus map[string]int

	// LastTotalRequest and LastPreferencesUpdate hold the decoded bodies of
	// the most recent calls to those routes.
	LastTotalRequest      map[string]any
	LastTotalQuery        string
	LastPreferencesUpdate map[string]any

	sessions map[string]bool
	calls    map[string]int
}

// NewBackend starts a fake backend with one position (id 5) and realistic
// catalogs.
func NewBackend() *Backend {
	b := &Backend{
		Username: DefaultUsername,
		Password: DefaultPassword,
		Positions: []map[string]any{
			{
				"position_id":        5,
				"title":              "Frontend Developer",
				"resume_link":        "https://example.com/cv.pdf",
				"salary":             "250000",
				"currency":           "RUB",
				"remote":             true,
				"apply_to_favorites": false,
				"notes":              "",
				"user_id":            "9f1c2d3e-4b5a-6789-abcd-ef0123456789",
				"status":             true,
				"created_at":         "2025-01-10T12:00:00Z",
				"letter_type":        []string{"short"},
			},
		},
		Preferences: map[int]map[string]any{
			5: {
				"position_id":           5,
				"keywords":              []string{"vue", "typescript"},
				"search_in_title":       true,
				"search_in_description": false,
				"exclude_words":         []string{"junior"},
				"selected_industries":   []string{"it"},
				"experience_level":      "between1And3",
				"manual_query_enabled":  false,
			},
		},
		ManualQuery:     map[int]bool{5: false},
		IndustriesBody:  `{"industries":[{"id":"it","name":"Программист, разработчик","name_en":"Software developer"},{"id":"design","name":"Дизайнер, художник","name_en":"Designer"}]}`,
		ExperiencesBody: `["noExperience","between1And3","between3And6","moreThan6"]`,
		TotalBody:       `{"total_vacancies":42,"position_id":5}`,
		ForceStatus:     map[string]int{},
		sessions:        map[string]bool{},
		calls:           map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.handleLogin)
	mux.HandleFunc("GET /api/positions", b.authed(RoutePositions, b.handlePositions))
	mux.HandleFunc("GET /api/positions/experiences", b.authed(RouteExperiences, b.handleRaw(func() string { return b.ExperiencesBody })))
	mux.HandleFunc("POST /api/positions/get-total-vacancies", b.authed(RouteTotal, b.handleTotal))
	mux.HandleFunc("GET /api/positions/{id}/preferences", b.authed(RoutePrefsGet, b.handleGetPreferences))
	mux.HandleFunc("PUT /api/positions/{id}/preferences", b.authed(RoutePrefsPut, b.handlePutPreferences))
	mux.HandleFunc("POST /api/positions/{id}/preferences/manual_query/toggle", b.authed(RouteToggle, b.handleToggle))
	mux.HandleFunc("GET /api/industries", b.authed(RouteIndustries, b.handleRaw(func() string { return b.IndustriesBody })))

	b.Server = httptest.NewServer(mux)
	return b
}

// BaseURL returns the API root to configure clients with.
func (b *Backend) BaseURL() string {
	return b.URL + "/api"
}

// Lock and Unlock guard the exported fields.
func (b *Backend) Lock()   { b.mu.Lock() }
func (b *Backend) Unlock() { b.mu.Unlock() }

// Calls returns how many requests reached route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// ExpireSessions invalidates every issued session cookie.
func (b *Backend) ExpireSessions() {
	b.mu.Lock()
	b.sessions = map[string]bool{}
	b.mu.Unlock()
}

// SetTotalBody replaces the total-vacancies response body.
func (b *Backend) SetTotalBody(body string) {
	b.mu.Lock()
	b.TotalBody = body
	b.mu.Unlock()
}

// SetStatus forces route to answer with status; 0 clears it.
func (b *Backend) SetStatus(route string, status int) {
	b.mu.Lock()
	if status == 0 {
		delete(b.ForceStatus, route)
	} else {
		b.ForceStatus[route] = status
	}
	b.mu.Unlock()
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[RouteLogin]++

	if status, ok := b.ForceStatus[RouteLogin]; ok {
		http.Error(w, "login unavailable", status)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("grant_type") != "password" {
		http.Error(w, "unsupported grant_type", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != b.Username || r.PostForm.Get("password") != b.Password {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	id := uuid.NewString()
	b.sessions[id] = true
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, LoginResponseBody) //nolint:errcheck
}

// authed counts the call, enforces the session cookie and any forced status,
// and runs h with the lock held.
func (b *Backend) authed(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.calls[route]++

		c, err := r.Cookie(SessionCookie)
		if err != nil || !b.sessions[c.Value] {
			http.Error(w, `{"detail":"Not authenticated"}`, http.StatusUnauthorized)
			return
		}
		if status, ok := b.ForceStatus[route]; ok {
			http.Error(w, fmt.Sprintf(`{"detail":"forced %d"}`, status), status)
			return
		}
		h(w, r)
	}
}

func (b *Backend) handleRaw(body func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body()) //nolint:errcheck
	}
}

func (b *Backend) handlePositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"positions":           b.Positions,
		"positions_count":     len(b.Positions),
		"positions_max_count": 3,
	})
}

func (b *Backend) positionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad position id", http.StatusUnprocessableEntity)
		return 0, false
	}
	return id, true
}

func (b *Backend) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := b.positionID(w, r)
	if !ok {
		return
	}
	prefs, found := b.Preferences[id]
	if !found {
		http.Error(w, `{"detail":"Position not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, prefs)
}

func (b *Backend) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := b.positionID(w, r)
	if !ok {
		return
	}
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "bad json", http.StatusUnprocessableEntity)
		return
	}
	b.LastPreferencesUpdate = maps.Clone(doc)
	doc["manual_query_enabled"] = b.ManualQuery[id]
	b.Preferences[id] = doc
	writeJSON(w, doc)
}

func (b *Backend) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := b.positionID(w, r)
	if !ok {
		return
	}
	b.ManualQuery[id] = !b.ManualQuery[id]
	writeJSON(w, map[string]bool{"manual_query_enabled": b.ManualQuery[id]})
}

func (b *Backend) handleTotal(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "bad json", http.StatusUnprocessableEntity)
		return
	}
	b.LastTotalRequest = doc
	b.LastTotalQuery = r.URL.Query().Get("position_id")
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, b.TotalBody) //nolint:errcheck
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
