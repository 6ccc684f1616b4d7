// Package location resolves the active coordinate from every selection
// source: map clicks, device geolocation, IP fallback, committed search
// results, and restored URL or stored preferences.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	pkgerrors "github.com/pkg/errors"

	"weathermap/internal/events"
	"weathermap/internal/models"
	"weathermap/pkg/logger"
)

// geolocationTimeout bounds how long a device position request may take
// before it is reported as timed out.
const geolocationTimeout = 10 * time.Second

// Sentinel geolocation failures. Geolocator implementations return these
// (possibly wrapped) so the resolver can pick the right recovery path.
var (
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("geolocation position unavailable")
	ErrTimeout             = errors.New("geolocation request timed out")
	ErrNotSupported        = errors.New("geolocation not supported")
)

// Kind classifies a resolution failure for message lookup.
type Kind string

const (
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindPositionUnavailable Kind = "POSITION_UNAVAILABLE"
	KindTimeout             Kind = "TIMEOUT"
	KindNotSupported        Kind = "NOT_SUPPORTED"
	KindUnknown             Kind = "UNKNOWN"
)

// Classify maps a resolution error to its Kind.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrPositionUnavailable):
		return KindPositionUnavailable
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrNotSupported):
		return KindNotSupported
	default:
		return KindUnknown
	}
}

// Geolocator is the device position source. A nil Geolocator means the
// platform offers none.
type Geolocator interface {
	Locate(ctx context.Context) (models.Coordinate, error)
}

// IPLocator is the slice of the proxy client used for the IP fallback.
type IPLocator interface {
	IPLocation(ctx context.Context) (models.IPLocation, error)
}

// Trigger is one way a location selection can start.
type Trigger interface {
	source() events.LocationSource
}

// MapClick selects the clicked coordinate directly.
type MapClick struct {
	Coordinate models.Coordinate
}

// GeolocationRequest asks the device for its position, falling back to IP
// geolocation when the position is unavailable.
type GeolocationRequest struct{}

// SearchSelection selects a committed search result.
type SearchSelection struct {
	Result models.SearchResult
}

// URLRestore selects the coordinate carried in the page URL at startup.
type URLRestore struct {
	Coordinate models.Coordinate
}

// StorageRestore selects the coordinate mirrored into stored preferences.
type StorageRestore struct {
	Coordinate models.Coordinate
}

func (MapClick) source() events.LocationSource           { return events.SourceMapClick }
func (GeolocationRequest) source() events.LocationSource { return events.SourceGeolocation }
func (SearchSelection) source() events.LocationSource    { return events.SourceSearch }
func (URLRestore) source() events.LocationSource         { return events.SourceURL }
func (StorageRestore) source() events.LocationSource     { return events.SourceStorage }

// Resolution is the outcome of a successful trigger.
type Resolution struct {
	Coordinate models.Coordinate
	Source     events.LocationSource

	// SearchName carries the committed result's display name for search
	// selections, empty otherwise.
	SearchName string

	// Approximate is set when the coordinate came from the IP fallback
	// and the user should see the accuracy notice.
	Approximate bool
}

// Resolver turns triggers into clamped coordinates and announces each
// selection on the event bus.
type Resolver struct {
	geo   Geolocator
	ip    IPLocator
	bus   *events.Bus
	clock clockwork.Clock
	l     *logger.Logger

	mu          sync.Mutex
	lastFromURL *models.Coordinate
}

func NewResolver(geo Geolocator, ip IPLocator, bus *events.Bus, clock clockwork.Clock, l *logger.Logger) *Resolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Resolver{geo: geo, ip: ip, bus: bus, clock: clock, l: l}
}

// Resolve handles one trigger. On success the selection is published as a
// LocationSelected event; on failure the error classifies via Classify and
// nothing is published.
func (r *Resolver) Resolve(ctx context.Context, trigger Trigger) (Resolution, error) {
	switch t := trigger.(type) {
	case MapClick:
		return r.publish(Resolution{Coordinate: t.Coordinate.Clamped(), Source: t.source()})

	case SearchSelection:
		return r.publish(Resolution{
			Coordinate: t.Result.Coordinate(),
			Source:     t.source(),
			SearchName: t.Result.DisplayName(),
		})

	case URLRestore:
		return r.restoreFromURL(t)

	case StorageRestore:
		return r.publish(Resolution{Coordinate: t.Coordinate.Clamped(), Source: t.source()})

	case GeolocationRequest:
		return r.resolveGeolocation(ctx)

	default:
		return Resolution{}, pkgerrors.Errorf("unsupported trigger %T", trigger)
	}
}

// restoreFromURL is idempotent: re-resolving the same URL coordinate does
// not publish a second selection.
func (r *Resolver) restoreFromURL(t URLRestore) (Resolution, error) {
	coord := t.Coordinate.Clamped()

	r.mu.Lock()
	repeated := r.lastFromURL != nil && *r.lastFromURL == coord
	r.lastFromURL = &coord
	r.mu.Unlock()

	res := Resolution{Coordinate: coord, Source: t.source()}
	if repeated {
		return res, nil
	}
	return r.publish(res)
}

func (r *Resolver) resolveGeolocation(ctx context.Context) (Resolution, error) {
	if r.geo == nil {
		return Resolution{}, ErrNotSupported
	}

	coord, err := r.locateWithTimeout(ctx)
	if err == nil {
		return r.publish(Resolution{Coordinate: coord.Clamped(), Source: events.SourceGeolocation})
	}

	r.l.Warning("geolocation failed", map[string]any{"kind": string(Classify(err))})

	if !errors.Is(err, ErrPositionUnavailable) {
		return Resolution{}, err
	}

	loc, ipErr := r.ip.IPLocation(ctx)
	if ipErr != nil {
		r.l.Error(ipErr)
		// Both sources failed; the error classifies as unknown.
		return Resolution{}, pkgerrors.Wrap(ipErr, "could not resolve location via IP either")
	}

	return r.publish(Resolution{
		Coordinate:  models.NewCoordinate(loc.Lat, loc.Lng),
		Source:      events.SourceIPFallback,
		Approximate: true,
	})
}

// locateWithTimeout bounds the device position request; the pending request
// is abandoned on timeout, not cancelled.
func (r *Resolver) locateWithTimeout(ctx context.Context) (models.Coordinate, error) {
	type outcome struct {
		coord models.Coordinate
		err   error
	}

	ch := make(chan outcome, 1)
	go func() {
		coord, err := r.geo.Locate(ctx)
		ch <- outcome{coord, err}
	}()

	select {
	case out := <-ch:
		return out.coord, out.err
	case <-r.clock.After(geolocationTimeout):
		return models.Coordinate{}, ErrTimeout
	case <-ctx.Done():
		return models.Coordinate{}, pkgerrors.Wrap(ctx.Err(), "location request aborted")
	}
}

func (r *Resolver) publish(res Resolution) (Resolution, error) {
	r.l.Info("location selected", map[string]any{
		"source": string(res.Source),
		"lat":    res.Coordinate.Lat,
		"lng":    res.Coordinate.Lng,
	})

	r.bus.PublishLocationSelected(events.LocationSelected{
		Coordinate: res.Coordinate,
		Source:     res.Source,
		SearchName: res.SearchName,
	})
	return res, nil
}
