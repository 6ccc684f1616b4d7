// Package search drives the city autocomplete: debounced queries against
// the proxy's forward search, a keyboard-navigable result list, and the
// selection handshake with the rest of the app.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"weathermap/internal/events"
	"weathermap/internal/i18n"
	"weathermap/internal/models"
	"weathermap/pkg/logger"
)

const (
	// debounceDelay is how long input must be idle before a query fires.
	debounceDelay = 300 * time.Millisecond

	// minQueryLength is the shortest input that triggers a search.
	minQueryLength = 2

	// maxResults caps the result list.
	maxResults = 10
)

// Searcher is the slice of the proxy client the service queries.
type Searcher interface {
	SearchCity(ctx context.Context, query, lang string, limit int) ([]models.SearchResult, error)
}

// Service owns the autocomplete state machine. All methods are safe for
// concurrent use; the debounce timer fires on its own goroutine.
type Service struct {
	api   Searcher
	bus   *events.Bus
	clock clockwork.Clock
	l     *logger.Logger

	mu        sync.Mutex
	lang      i18n.Lang
	input     string
	results   []models.SearchResult
	highlight int
	visible   bool

	// gen invalidates pending debounce timers and in-flight responses
	// whenever the input changes again.
	gen     int
	pending clockwork.Timer
}

func NewService(api Searcher, bus *events.Bus, clock clockwork.Clock, l *logger.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		api:       api,
		bus:       bus,
		clock:     clock,
		l:         l,
		lang:      i18n.DefaultLang,
		highlight: -1,
	}
}

// SetLanguage switches the language future queries are issued in.
func (s *Service) SetLanguage(lang i18n.Lang) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = lang
}

// Input records a change to the search box. Queries of fewer than two
// characters clear the list immediately; anything longer schedules a search
// after the debounce delay. Only the most recent pending timer ever fires.
func (s *Service) Input(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = text
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}

	query := strings.TrimSpace(text)
	if len([]rune(query)) < minQueryLength {
		s.results = nil
		s.highlight = -1
		s.visible = false
		return
	}

	gen := s.gen
	s.pending = s.clock.AfterFunc(debounceDelay, func() {
		s.runQuery(ctx, query, gen)
	})
}

func (s *Service) runQuery(ctx context.Context, query string, gen int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	lang := s.lang
	s.mu.Unlock()

	results, err := s.api.SearchCity(ctx, query, string(lang), maxResults)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}

	if err != nil {
		// Provider trouble never surfaces in the UI; the list just clears.
		s.l.Warning("city search failed", map[string]any{"query": query, "error": err.Error()})
		s.results = nil
		s.highlight = -1
		s.visible = false
		return
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	s.results = results
	s.highlight = -1
	s.visible = len(results) > 0
}

// MoveDown advances the highlight, wrapping past the last result.
func (s *Service) MoveDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return
	}
	s.highlight = (s.highlight + 1) % len(s.results)
}

// MoveUp retreats the highlight, wrapping past the first result.
func (s *Service) MoveUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return
	}
	if s.highlight <= 0 {
		s.highlight = len(s.results) - 1
		return
	}
	s.highlight--
}

// Commit selects the highlighted result. With nothing highlighted it is a
// no-op.
func (s *Service) Commit() {
	s.mu.Lock()
	if s.highlight < 0 || s.highlight >= len(s.results) {
		s.mu.Unlock()
		return
	}
	result := s.results[s.highlight]
	s.mu.Unlock()

	s.Select(result)
}

// Select commits a result: the input clears, the list hides, and the
// selection is announced.
func (s *Service) Select(result models.SearchResult) {
	s.mu.Lock()
	s.input = ""
	s.results = nil
	s.highlight = -1
	s.visible = false
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.mu.Unlock()

	s.l.Info("search result selected", map[string]any{"name": result.DisplayName()})
	s.bus.PublishCitySelected(events.CitySelected{Result: result})
}

// Dismiss hides the result list without touching the input, the Escape and
// outside-click behavior.
func (s *Service) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	s.highlight = -1
	s.visible = false
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// InputValue returns the current search box content.
func (s *Service) InputValue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Results returns a snapshot of the visible result list.
func (s *Service) Results() []models.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SearchResult, len(s.results))
	copy(out, s.results)
	return out
}

// Highlighted returns the highlight index, -1 when nothing is highlighted.
func (s *Service) Highlighted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlight
}

// Visible reports whether the result list is shown.
func (s *Service) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}
