package providers

import (
	"context"
	"errors"
	"time"

	"clinicflow/internal/scheduling"
	"clinicflow/pkg/logger"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	window    scheduling.Window
	expiresAt time.Time
}

// Directory resolves a provider's working window. Lookups are cached for ttl;
// unknown providers, the unassigned pseudo-provider and providers with
// unusable hours all get the practice default.
type Directory struct {
	source        Source
	cache         *lru.Cache[string, *cacheEntry]
	ttl           time.Duration
	defaultWindow scheduling.Window
	log           *logger.Logger
	now           func() time.Time
}

func NewDirectory(source Source, defaultWindow scheduling.Window, size int, ttl time.Duration, log *logger.Logger) (*Directory, error) {
	cache, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, err
	}

	return &Directory{
		source:        source,
		cache:         cache,
		ttl:           ttl,
		defaultWindow: defaultWindow,
		log:           log,
		now:           time.Now,
	}, nil
}

func (d *Directory) Window(ctx context.Context, providerID string) (scheduling.Window, error) {
	if providerID == "" {
		return d.defaultWindow, nil
	}

	if entry, ok := d.cache.Get(providerID); ok && d.now().Before(entry.expiresAt) {
		d.log.Debug("Provider window cache hit", "provider_id", providerID)
		return entry.window, nil
	}

	window, err := d.lookup(ctx, providerID)
	if err != nil {
		return scheduling.Window{}, err
	}

	d.cache.Add(providerID, &cacheEntry{window: window, expiresAt: d.now().Add(d.ttl)})
	return window, nil
}

func (d *Directory) lookup(ctx context.Context, providerID string) (scheduling.Window, error) {
	provider, err := d.source.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			d.log.Debug("Provider not in directory, using default hours", "provider_id", providerID)
			return d.defaultWindow, nil
		}
		return scheduling.Window{}, err
	}

	if provider.WorkStart == "" && provider.WorkEnd == "" {
		return d.defaultWindow, nil
	}

	window, err := scheduling.ParseWindow(provider.WorkStart, provider.WorkEnd)
	if err != nil || window.Empty() {
		d.log.Warn("Provider has unusable working hours, using default",
			"provider_id", providerID,
			"work_start", provider.WorkStart,
			"work_end", provider.WorkEnd,
		)
		return d.defaultWindow, nil
	}
	return window, nil
}
