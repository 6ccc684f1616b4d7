// Package session owns the UI state: the result panel lifecycle, the active
// language, and the canonical URL query mirrored into stored preferences.
package session

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"weathermap/internal/events"
	"weathermap/internal/i18n"
	"weathermap/internal/models"
	"weathermap/internal/services/location"
	"weathermap/pkg/logger"
)

const (
	// prefKey is the single preference entry mirroring the URL query.
	prefKey = "weathermap_state"

	defaultZoom = 13

	// forecastRowCount is how many upcoming samples the panel lists.
	forecastRowCount = 5
)

// Phase is the render lifecycle of the result panel.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseRendered Phase = "rendered"
	PhaseErrored  Phase = "errored"
)

// Fetcher is the weather aggregator surface the controller drives.
type Fetcher interface {
	Fetch(ctx context.Context, coord models.Coordinate, lang i18n.Lang, searchName string) (models.WeatherBundle, error)
}

// Resolver turns restore triggers into location selections.
type Resolver interface {
	Resolve(ctx context.Context, trigger location.Trigger) (location.Resolution, error)
}

// AddressBar abstracts the navigable URL the session keeps in sync.
type AddressBar interface {
	Query() url.Values
	SetQuery(values url.Values)
}

// Store is the preference mirror of the URL state.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Notifier shows a non-blocking message to the user.
type Notifier interface {
	Notify(message string)
}

// Controller coordinates fetch cycles and panel state. Location selections
// arrive over the event bus; everything else is driven by direct calls from
// the UI layer.
type Controller struct {
	fetcher  Fetcher
	resolver Resolver
	addr     AddressBar
	store    Store
	notifier Notifier
	l        *logger.Logger

	mu        sync.Mutex
	lang      i18n.Lang
	zoom      int
	coord     *models.Coordinate
	phase     Phase
	visible   bool
	minimized bool
	view      *View
	errMsg    string

	// seq orders fetch cycles; a cycle that finishes after a newer one was
	// issued is discarded instead of overwriting fresher data.
	seq uint64

	bus *events.Bus
}

func NewController(fetcher Fetcher, resolver Resolver, addr AddressBar, store Store, notifier Notifier, bus *events.Bus, lang i18n.Lang, l *logger.Logger) *Controller {
	c := &Controller{
		fetcher:  fetcher,
		resolver: resolver,
		addr:     addr,
		store:    store,
		notifier: notifier,
		bus:      bus,
		lang:     lang,
		zoom:     defaultZoom,
		phase:    PhaseIdle,
		l:        l,
	}
	bus.OnLocationSelected(c.handleLocationSelected)
	return c
}

// Start restores persisted state: the URL query wins, stored preferences
// apply only when the URL carries no coordinate. With neither present the
// panel stays hidden until the first selection.
func (c *Controller) Start(ctx context.Context) {
	if c.restoreFrom(ctx, c.addr.Query(), true) {
		return
	}

	raw, ok := c.store.Get(prefKey)
	if !ok {
		return
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		c.l.Warning("ignoring corrupt stored state", map[string]any{"value": raw})
		return
	}
	c.restoreFrom(ctx, values, false)
}

func (c *Controller) restoreFrom(ctx context.Context, values url.Values, fromURL bool) bool {
	lat, latErr := strconv.ParseFloat(values.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(values.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		return false
	}

	c.mu.Lock()
	if zoom, err := strconv.Atoi(values.Get("zoom")); err == nil && zoom > 0 {
		c.zoom = zoom
	}
	if langParam := values.Get("lang"); langParam != "" {
		c.lang = i18n.Parse(langParam)
	}
	c.mu.Unlock()

	coord := models.NewCoordinate(lat, lng)
	var trigger location.Trigger
	if fromURL {
		trigger = location.URLRestore{Coordinate: coord}
	} else {
		trigger = location.StorageRestore{Coordinate: coord}
	}

	if _, err := c.resolver.Resolve(ctx, trigger); err != nil {
		c.l.Error(err)
		return false
	}
	return true
}

// handleLocationSelected runs one fetch cycle for the selected coordinate.
func (c *Controller) handleLocationSelected(e events.LocationSelected) {
	ctx := context.Background()

	c.mu.Lock()
	c.seq++
	mySeq := c.seq
	coord := e.Coordinate
	lang := c.lang
	c.coord = &coord
	c.phase = PhaseLoading
	c.errMsg = ""
	wasVisible := c.visible
	c.visible = true
	c.mu.Unlock()

	if !wasVisible {
		c.bus.PublishInfoVisibilityChanged(events.InfoVisibilityChanged{Visible: true})
	}
	if e.Source == events.SourceIPFallback {
		c.notifier.Notify(i18n.T(lang).UsingIPLocation)
	}

	bundle, err := c.fetcher.Fetch(ctx, coord, lang, e.SearchName)

	c.mu.Lock()
	if mySeq != c.seq {
		c.mu.Unlock()
		c.l.Debug("discarding stale fetch cycle", map[string]any{"seq": mySeq})
		return
	}

	if err != nil {
		c.phase = PhaseErrored
		c.errMsg = err.Error()
		c.view = nil
		c.mu.Unlock()
		c.notifier.Notify(err.Error())
		return
	}

	c.phase = PhaseRendered
	view := buildView(bundle, lang)
	c.view = &view
	c.mu.Unlock()

	c.syncState()
}

// syncState writes the canonical query string to the address bar and
// mirrors it into the preference store.
func (c *Controller) syncState() {
	c.mu.Lock()
	if c.coord == nil {
		c.mu.Unlock()
		return
	}
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%.6f", c.coord.Lat))
	values.Set("lng", fmt.Sprintf("%.6f", c.coord.Lng))
	values.Set("zoom", strconv.Itoa(c.zoom))
	values.Set("lang", string(c.lang))
	c.mu.Unlock()

	c.addr.SetQuery(values)
	if err := c.store.Set(prefKey, values.Encode()); err != nil {
		c.l.Warning("failed to persist state", map[string]any{"error": err.Error()})
	}
}

// ToggleLanguage flips the active language, re-syncs the URL, and re-fetches
// the active coordinate so descriptions and the place name relocalize.
func (c *Controller) ToggleLanguage() {
	c.mu.Lock()
	c.lang = c.lang.Toggle()
	coord := c.coord
	c.mu.Unlock()

	c.syncState()

	if coord != nil {
		c.handleLocationSelected(events.LocationSelected{Coordinate: *coord, Source: events.SourceMapClick})
	}
}

// MapMoved records a confirmed map viewport change, the move-end handshake
// from the map layer. The new center and zoom are persisted immediately;
// no weather fetch is triggered.
func (c *Controller) MapMoved(coord models.Coordinate, zoom int) {
	coord = coord.Clamped()

	c.mu.Lock()
	c.coord = &coord
	if zoom > 0 {
		c.zoom = zoom
	}
	c.mu.Unlock()

	c.syncState()
}

// SetZoom records the map zoom level and re-syncs persisted state.
func (c *Controller) SetZoom(zoom int) {
	if zoom <= 0 {
		return
	}
	c.mu.Lock()
	c.zoom = zoom
	hasCoord := c.coord != nil
	c.mu.Unlock()

	if hasCoord {
		c.syncState()
	}
}

// ToggleMinimized flips the panel between its full and minimized sizes.
func (c *Controller) ToggleMinimized() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minimized = !c.minimized
}

// Hide closes the result panel.
func (c *Controller) Hide() {
	c.mu.Lock()
	wasVisible := c.visible
	c.visible = false
	c.mu.Unlock()

	if wasVisible {
		c.bus.PublishInfoVisibilityChanged(events.InfoVisibilityChanged{Visible: false})
	}
}

// NotifyLocationError surfaces a resolver failure as a localized
// non-blocking notification.
func (c *Controller) NotifyLocationError(err error) {
	c.mu.Lock()
	table := i18n.T(c.lang)
	c.mu.Unlock()

	var msg string
	switch location.Classify(err) {
	case location.KindPermissionDenied:
		msg = table.LocationDenied
	case location.KindPositionUnavailable:
		msg = table.LocationUnavailable
	case location.KindTimeout:
		msg = table.LocationTimeout
	case location.KindNotSupported:
		msg = table.GeolocationNotSupported
	default:
		msg = table.LocationUnknown
	}
	c.notifier.Notify(msg)
}

// Lang returns the active language.
func (c *Controller) Lang() i18n.Lang {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// RTL reports whether the active language renders right-to-left.
func (c *Controller) RTL() bool {
	return c.Lang().RTL()
}

// Phase returns the current render phase.
func (c *Controller) CurrentPhase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Visible reports whether the result panel is shown.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Minimized reports whether the panel is in its compact size.
func (c *Controller) Minimized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minimized
}

// CurrentView returns the rendered view-model, nil unless the phase is
// PhaseRendered.
func (c *Controller) CurrentView() *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// ErrorMessage returns the message of the failed cycle, empty otherwise.
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}
