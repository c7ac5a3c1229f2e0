// Package services orchestrates the stores, auth, caching and event
// publishing behind the HTTP handlers and the worker.
package services

import (
	"context"
	"log/slog"
	"time"

	"mosques/internal/auth"
	"mosques/internal/cache"
	"mosques/internal/core"
	applog "mosques/internal/log"
	"mosques/internal/metrics"
	ports "mosques/internal/sheets"
)

// Publisher announces that derived reports are stale. *amqp.Client
// implements it.
type Publisher interface {
	PublishReportRefresh(ctx context.Context, reason, actor string) error
}

type Deps struct {
	Store     ports.Store
	Tokens    *auth.Issuer
	Publisher Publisher // optional
	Metrics   *metrics.Metrics
	CacheTTL  time.Duration
}

// Services bundles every service over one store.
type Services struct {
	Users     *UserService
	Materials *MaterialService
	Receipts  *ReceiptService
	Reports   *ReportService

	caches *cache.Manager
}

const cacheSize = 16

func New(d Deps) *Services {
	events := &notifier{publisher: d.Publisher, metrics: d.Metrics}

	materialCache := cache.NewLRUCache[[]core.Material](cacheSize, d.CacheTTL)
	geoCache := cache.NewLRUCache[core.GovernorateZones](cacheSize, d.CacheTTL)
	d.Metrics.RegisterCacheStats("materials", materialCache.Stats)
	d.Metrics.RegisterCacheStats("geography", geoCache.Stats)

	manager := cache.NewManager(slog.Default().With(applog.FieldComponent, applog.ComponentCache))
	manager.Register(materialCache)
	manager.Register(geoCache)
	manager.StartCleanup(d.CacheTTL)

	materials := NewMaterialService(d.Store, d.Store, materialCache, events)
	return &Services{
		Users:     NewUserService(d.Store, d.Tokens, d.Metrics),
		Materials: materials,
		Receipts:  NewReceiptService(d.Store, d.Store, materials, geoCache, events, d.Metrics),
		Reports:   NewReportService(d.Store, d.Store, d.Store, materials, d.Metrics),
		caches:    manager,
	}
}

// Close stops background cache maintenance.
func (s *Services) Close() {
	s.caches.Stop()
}

// notifier publishes refresh events best-effort: failures are logged and
// counted but never returned to the caller.
type notifier struct {
	publisher Publisher
	metrics   *metrics.Metrics
}

func (n *notifier) reportsStale(ctx context.Context, reason, actor string) {
	if n == nil || n.publisher == nil {
		return
	}
	err := n.publisher.PublishReportRefresh(ctx, reason, actor)
	n.metrics.ObservePublish(err == nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish report refresh",
			applog.FieldComponent, applog.ComponentAMQP,
			"reason", reason,
			applog.FieldError, err)
	}
}
