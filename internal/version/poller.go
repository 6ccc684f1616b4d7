// Package version watches the deployed application version and refreshes
// the client when it changes.
package version

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"weathermap/internal/i18n"
	"weathermap/pkg/logger"
)

const (
	// pollInterval is how often the deployed version is checked.
	pollInterval = 10 * time.Second

	// retryDelay is how long to wait before reattempting a refused reload.
	retryDelay = 30 * time.Second
)

// VersionAPI is the slice of the proxy client the poller consumes.
type VersionAPI interface {
	Version(ctx context.Context) (string, error)
}

// Cache is cleared before reloading so the new version starts fresh.
type Cache interface {
	Clear() error
}

// Reloader restarts the client on a new version. An error means the reload
// was refused and will be retried.
type Reloader interface {
	Reload() error
}

// Notifier shows a non-blocking message to the user.
type Notifier interface {
	Notify(message string)
}

// Poller checks the deployed version on a fixed schedule. Transport errors
// are swallowed and retried on the next tick; a refused reload is retried
// after a fixed delay.
type Poller struct {
	api      VersionAPI
	cache    Cache
	reloader Reloader
	notifier Notifier
	langFn   func() i18n.Lang
	clock    clockwork.Clock
	l        *logger.Logger

	mu           sync.Mutex
	current      string
	retryPending bool

	scheduler *gocron.Scheduler
}

func NewPoller(api VersionAPI, cache Cache, reloader Reloader, notifier Notifier, langFn func() i18n.Lang, currentVersion string, clock clockwork.Clock, l *logger.Logger) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if langFn == nil {
		langFn = func() i18n.Lang { return i18n.DefaultLang }
	}
	return &Poller{
		api:      api,
		cache:    cache,
		reloader: reloader,
		notifier: notifier,
		langFn:   langFn,
		clock:    clock,
		current:  currentVersion,
		l:        l,
	}
}

// Start schedules the version check. Stop must be called on shutdown.
func (p *Poller) Start(ctx context.Context) error {
	p.scheduler = gocron.NewScheduler(time.UTC)
	if _, err := p.scheduler.Every(pollInterval).Do(func() { p.Check(ctx) }); err != nil {
		return err
	}
	p.scheduler.StartAsync()
	return nil
}

// Stop halts the schedule.
func (p *Poller) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

// Check runs one poll cycle. Exposed so the schedule and tests share the
// same path.
func (p *Poller) Check(ctx context.Context) {
	v, err := p.api.Version(ctx)
	if err != nil {
		// Transient lookup trouble; the next tick tries again.
		p.l.Debug("version check failed", map[string]any{"error": err.Error()})
		return
	}

	p.mu.Lock()
	changed := v != p.current
	p.mu.Unlock()

	if !changed {
		return
	}

	p.l.Info("new version deployed", map[string]any{"version": v})
	p.refresh(v)
}

// refresh clears the cache and asks for a reload, scheduling a retry when
// the reload is refused.
func (p *Poller) refresh(v string) {
	if err := p.cache.Clear(); err != nil {
		p.l.Warning("failed to clear cache before reload", map[string]any{"error": err.Error()})
	}

	if err := p.reloader.Reload(); err != nil {
		p.l.Warning("reload refused", map[string]any{"error": err.Error()})
		p.notifier.Notify(i18n.T(p.langFn()).UpdateAvailable)

		p.mu.Lock()
		if p.retryPending {
			p.mu.Unlock()
			return
		}
		p.retryPending = true
		p.mu.Unlock()

		p.clock.AfterFunc(retryDelay, func() {
			p.mu.Lock()
			p.retryPending = false
			p.mu.Unlock()
			p.refresh(v)
		})
		return
	}

	p.mu.Lock()
	p.current = v
	p.mu.Unlock()
}
