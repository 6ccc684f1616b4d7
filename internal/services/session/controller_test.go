package session

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathermap/internal/events"
	"weathermap/internal/i18n"
	"weathermap/internal/models"
	"weathermap/internal/services/location"
	"weathermap/internal/storage"
	"weathermap/pkg/logger"
)

type fetchCall struct {
	coord      models.Coordinate
	lang       i18n.Lang
	searchName string
}

type fakeFetcher struct {
	mu     sync.Mutex
	calls  []fetchCall
	bundle models.WeatherBundle
	err    error
	hook   func(call int)
}

func (f *fakeFetcher) Fetch(ctx context.Context, coord models.Coordinate, lang i18n.Lang, searchName string) (models.WeatherBundle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{coord, lang, searchName})
	n := len(f.calls)
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if f.err != nil {
		return models.WeatherBundle{}, f.err
	}
	bundle := f.bundle
	bundle.Coordinate = coord
	return bundle, nil
}

func (f *fakeFetcher) callList() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fetchCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// fakeResolver publishes restore triggers straight onto the bus, the way
// the real resolver announces selections.
type fakeResolver struct {
	bus      *events.Bus
	triggers []location.Trigger
}

func (r *fakeResolver) Resolve(ctx context.Context, trigger location.Trigger) (location.Resolution, error) {
	r.triggers = append(r.triggers, trigger)
	switch t := trigger.(type) {
	case location.URLRestore:
		r.bus.PublishLocationSelected(events.LocationSelected{Coordinate: t.Coordinate, Source: events.SourceURL})
	case location.StorageRestore:
		r.bus.PublishLocationSelected(events.LocationSelected{Coordinate: t.Coordinate, Source: events.SourceStorage})
	}
	return location.Resolution{}, nil
}

type fakeAddressBar struct {
	mu     sync.Mutex
	values url.Values
}

func (a *fakeAddressBar) Query() url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.values == nil {
		return url.Values{}
	}
	return a.values
}

func (a *fakeAddressBar) SetQuery(values url.Values) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values = values
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

type sessionFixture struct {
	ctrl     *Controller
	bus      *events.Bus
	fetcher  *fakeFetcher
	resolver *fakeResolver
	addr     *fakeAddressBar
	store    *storage.MemoryStore
	notifier *fakeNotifier
}

func sampleBundle() models.WeatherBundle {
	return models.WeatherBundle{
		Current: models.CurrentConditions{
			PlaceName:    "New York",
			TemperatureC: 21.4,
			Description:  "scattered clouds",
			HumidityPct:  63,
			WindSpeedMs:  5,
			WindDegrees:  180,
			WindSpeedKmh: 18,
			WindCompass:  "S",
		},
	}
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		bus:      events.NewBus(),
		fetcher:  &fakeFetcher{bundle: sampleBundle()},
		addr:     &fakeAddressBar{},
		store:    storage.NewMemoryStore(),
		notifier: &fakeNotifier{},
	}
	f.resolver = &fakeResolver{bus: f.bus}
	f.ctrl = NewController(f.fetcher, f.resolver, f.addr, f.store, f.notifier, f.bus,
		i18n.LangEN, logger.NewZapLogger("session-test"))
	return f
}

func TestMapClickRendersAndPersists(t *testing.T) {
	f := newSessionFixture(t)

	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 40.7128, Lng: -74.0060},
		Source:     events.SourceMapClick,
	})

	assert.Equal(t, PhaseRendered, f.ctrl.CurrentPhase())
	assert.True(t, f.ctrl.Visible())

	view := f.ctrl.CurrentView()
	require.NotNil(t, view)
	assert.Equal(t, "New York", view.PlaceName)
	assert.Equal(t, "21.4°C", view.Temperature)
	assert.Equal(t, "18 km/h blowing from S", view.Wind)
	assert.False(t, view.RTL)

	q := f.addr.Query()
	assert.Equal(t, "40.712800", q.Get("lat"))
	assert.Equal(t, "-74.006000", q.Get("lng"))
	assert.Equal(t, "13", q.Get("zoom"))
	assert.Equal(t, "en", q.Get("lang"))

	stored, ok := f.store.Get("weathermap_state")
	require.True(t, ok)
	assert.Equal(t, q.Encode(), stored)
}

func TestFetchErrorNotifiesAndKeepsPanel(t *testing.T) {
	f := newSessionFixture(t)
	f.fetcher.err = errors.New("Invalid API key")

	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 1, Lng: 2},
		Source:     events.SourceMapClick,
	})

	assert.Equal(t, PhaseErrored, f.ctrl.CurrentPhase())
	assert.True(t, f.ctrl.Visible())
	assert.Nil(t, f.ctrl.CurrentView())
	assert.Equal(t, "Invalid API key", f.ctrl.ErrorMessage())
	assert.Contains(t, f.notifier.all(), "Invalid API key")
}

func TestGeolocationDeniedShowsLocalizedMessage(t *testing.T) {
	f := newSessionFixture(t)

	f.ctrl.NotifyLocationError(location.ErrPermissionDenied)

	messages := f.notifier.all()
	require.Len(t, messages, 1)
	assert.Equal(t, i18n.T(i18n.LangEN).LocationDenied, messages[0])
}

func TestGeolocationErrorMessagesFollowLanguage(t *testing.T) {
	f := newSessionFixture(t)

	f.ctrl.ToggleLanguage()
	f.ctrl.NotifyLocationError(location.ErrTimeout)

	messages := f.notifier.all()
	require.Len(t, messages, 1)
	assert.Equal(t, i18n.T(i18n.LangHE).LocationTimeout, messages[0])
}

func TestToggleLanguageRefetchesActiveCoordinate(t *testing.T) {
	f := newSessionFixture(t)

	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 32.0853, Lng: 34.7818},
		Source:     events.SourceMapClick,
	})
	f.ctrl.ToggleLanguage()

	calls := f.fetcher.callList()
	require.Len(t, calls, 2)
	assert.Equal(t, i18n.LangEN, calls[0].lang)
	assert.Equal(t, i18n.LangHE, calls[1].lang)

	assert.True(t, f.ctrl.RTL())
	assert.Equal(t, "he", f.addr.Query().Get("lang"))

	view := f.ctrl.CurrentView()
	require.NotNil(t, view)
	assert.True(t, view.RTL)
	assert.Equal(t, i18n.T(i18n.LangHE).Humidity, view.Labels.Humidity)
}

func TestToggleLanguageWithoutCoordinateDoesNotFetch(t *testing.T) {
	f := newSessionFixture(t)

	f.ctrl.ToggleLanguage()

	assert.Empty(t, f.fetcher.callList())
	assert.Equal(t, i18n.LangHE, f.ctrl.Lang())
}

func TestStaleFetchCycleDiscarded(t *testing.T) {
	f := newSessionFixture(t)

	firstStarted := make(chan struct{})
	release := make(chan struct{})
	f.fetcher.hook = func(call int) {
		if call == 1 {
			close(firstStarted)
			<-release
		}
	}

	done := make(chan struct{})
	go func() {
		f.bus.PublishLocationSelected(events.LocationSelected{
			Coordinate: models.Coordinate{Lat: 1, Lng: 1},
			Source:     events.SourceMapClick,
		})
		close(done)
	}()

	<-firstStarted
	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 2, Lng: 2},
		Source:     events.SourceMapClick,
	})

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("first cycle never finished")
	}

	// The slower first cycle must not overwrite the newer selection.
	assert.Equal(t, "2.000000", f.addr.Query().Get("lat"))
	assert.Equal(t, PhaseRendered, f.ctrl.CurrentPhase())
}

func TestIPFallbackSelectionShowsAccuracyNotice(t *testing.T) {
	f := newSessionFixture(t)

	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 48.85, Lng: 2.35},
		Source:     events.SourceIPFallback,
	})

	assert.Contains(t, f.notifier.all(), i18n.T(i18n.LangEN).UsingIPLocation)
	assert.Equal(t, PhaseRendered, f.ctrl.CurrentPhase())
}

func TestSearchSelectionNameReachesFetcher(t *testing.T) {
	f := newSessionFixture(t)

	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 51.5, Lng: -0.12},
		Source:     events.SourceSearch,
		SearchName: "London, England, United Kingdom",
	})

	calls := f.fetcher.callList()
	require.Len(t, calls, 1)
	assert.Equal(t, "London, England, United Kingdom", calls[0].searchName)
}

func TestStartRestoresFromURLFirst(t *testing.T) {
	f := newSessionFixture(t)
	f.addr.SetQuery(url.Values{
		"lat":  []string{"51.507400"},
		"lng":  []string{"-0.127800"},
		"zoom": []string{"10"},
		"lang": []string{"he"},
	})
	require.NoError(t, f.store.Set("weathermap_state", "lat=1.000000&lng=2.000000&zoom=5&lang=en"))

	f.ctrl.Start(context.Background())

	require.Len(t, f.resolver.triggers, 1)
	trigger, ok := f.resolver.triggers[0].(location.URLRestore)
	require.True(t, ok)
	assert.InDelta(t, 51.5074, trigger.Coordinate.Lat, 0.0001)

	assert.Equal(t, i18n.LangHE, f.ctrl.Lang())
	assert.Equal(t, "10", f.addr.Query().Get("zoom"))
}

func TestStartFallsBackToStoredState(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.store.Set("weathermap_state", "lat=32.085300&lng=34.781800&zoom=8&lang=en"))

	f.ctrl.Start(context.Background())

	require.Len(t, f.resolver.triggers, 1)
	trigger, ok := f.resolver.triggers[0].(location.StorageRestore)
	require.True(t, ok)
	assert.InDelta(t, 32.0853, trigger.Coordinate.Lat, 0.0001)
	assert.Equal(t, PhaseRendered, f.ctrl.CurrentPhase())
}

func TestStartWithNothingStaysIdle(t *testing.T) {
	f := newSessionFixture(t)

	f.ctrl.Start(context.Background())

	assert.Empty(t, f.resolver.triggers)
	assert.Equal(t, PhaseIdle, f.ctrl.CurrentPhase())
	assert.False(t, f.ctrl.Visible())
}

func TestVisibilityEvents(t *testing.T) {
	f := newSessionFixture(t)

	var changes []bool
	f.bus.OnInfoVisibilityChanged(func(e events.InfoVisibilityChanged) {
		changes = append(changes, e.Visible)
	})

	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 1, Lng: 2},
		Source:     events.SourceMapClick,
	})
	f.ctrl.Hide()
	f.ctrl.Hide()

	assert.Equal(t, []bool{true, false}, changes)
}

func TestMapMovedSyncsStateWithoutFetching(t *testing.T) {
	f := newSessionFixture(t)

	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 40.7128, Lng: -74.0060},
		Source:     events.SourceMapClick,
	})
	require.Len(t, f.fetcher.callList(), 1)

	f.ctrl.MapMoved(models.Coordinate{Lat: 41.5, Lng: -73.2}, 9)

	// The pan is persisted, but no new fetch cycle starts.
	assert.Len(t, f.fetcher.callList(), 1)
	q := f.addr.Query()
	assert.Equal(t, "41.500000", q.Get("lat"))
	assert.Equal(t, "-73.200000", q.Get("lng"))
	assert.Equal(t, "9", q.Get("zoom"))

	stored, ok := f.store.Get("weathermap_state")
	require.True(t, ok)
	assert.Equal(t, q.Encode(), stored)
}

func TestMapMovedBeforeAnySelection(t *testing.T) {
	f := newSessionFixture(t)

	f.ctrl.MapMoved(models.Coordinate{Lat: 95, Lng: -200}, 0)

	q := f.addr.Query()
	assert.Equal(t, "90.000000", q.Get("lat"))
	assert.Equal(t, "-180.000000", q.Get("lng"))
	assert.Equal(t, "13", q.Get("zoom"))
	assert.Empty(t, f.fetcher.callList())
}

func TestToggleMinimized(t *testing.T) {
	f := newSessionFixture(t)

	assert.False(t, f.ctrl.Minimized())
	f.ctrl.ToggleMinimized()
	assert.True(t, f.ctrl.Minimized())
	f.ctrl.ToggleMinimized()
	assert.False(t, f.ctrl.Minimized())
}

func TestViewIncludesGusts(t *testing.T) {
	f := newSessionFixture(t)
	bundle := sampleBundle()
	bundle.Current.WindGustMs = 8.2
	f.fetcher.bundle = bundle

	f.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: models.Coordinate{Lat: 1, Lng: 2},
		Source:     events.SourceMapClick,
	})

	view := f.ctrl.CurrentView()
	require.NotNil(t, view)
	assert.Equal(t, "18 km/h blowing from S, gusts up to 30 km/h", view.Wind)
}
