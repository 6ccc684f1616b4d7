// Package events provides the typed publish/subscribe bus linking the
// location, search, and session services without a global event object.
package events

import (
	"sync"

	"weathermap/internal/models"
)

// LocationSource identifies which trigger produced a location selection.
type LocationSource string

const (
	SourceMapClick    LocationSource = "map"
	SourceGeolocation LocationSource = "geolocation"
	SourceIPFallback  LocationSource = "ip"
	SourceSearch      LocationSource = "search"
	SourceURL         LocationSource = "url"
	SourceStorage     LocationSource = "storage"
)

// LocationSelected fires when any location source resolved a coordinate.
type LocationSelected struct {
	Coordinate models.Coordinate
	Source     LocationSource

	// SearchName carries the user-selected display name when the
	// coordinate came from a search result. It takes precedence over
	// every reverse-geocoded field.
	SearchName string
}

// CitySelected fires when the user commits a search result.
type CitySelected struct {
	Result models.SearchResult
}

// InfoVisibilityChanged fires when the result panel is shown or hidden.
type InfoVisibilityChanged struct {
	Visible bool
}

// Bus delivers events synchronously to subscribers in registration order,
// mirroring the single-threaded event loop the services were designed for.
// Subscription and publishing are safe for concurrent use.
type Bus struct {
	mu             sync.RWMutex
	locationSubs   []func(LocationSelected)
	citySubs       []func(CitySelected)
	visibilitySubs []func(InfoVisibilityChanged)
}

func NewBus() *Bus {
	return &Bus{}
}

// OnLocationSelected registers a handler for location selections.
func (b *Bus) OnLocationSelected(fn func(LocationSelected)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locationSubs = append(b.locationSubs, fn)
}

// OnCitySelected registers a handler for committed search results.
func (b *Bus) OnCitySelected(fn func(CitySelected)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.citySubs = append(b.citySubs, fn)
}

// OnInfoVisibilityChanged registers a handler for panel visibility changes.
func (b *Bus) OnInfoVisibilityChanged(fn func(InfoVisibilityChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visibilitySubs = append(b.visibilitySubs, fn)
}

// PublishLocationSelected delivers a LocationSelected event.
func (b *Bus) PublishLocationSelected(e LocationSelected) {
	b.mu.RLock()
	subs := b.locationSubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

// PublishCitySelected delivers a CitySelected event.
func (b *Bus) PublishCitySelected(e CitySelected) {
	b.mu.RLock()
	subs := b.citySubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

// PublishInfoVisibilityChanged delivers a panel visibility event.
func (b *Bus) PublishInfoVisibilityChanged(e InfoVisibilityChanged) {
	b.mu.RLock()
	subs := b.visibilitySubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}
