// Package refresh keeps the catalog current. It loads the document from the
// primary source, falls back to the last known good copy when the primary is
// failing, and publishes the result as a new snapshot.
//
// Triggers from the schedule, startup and the admin endpoint may overlap; they
// are collapsed into one load.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/metrics"
	"schemematch/internal/scheme/ports"
	dErrors "schemematch/pkg/domain-errors"
	"schemematch/pkg/platform/audit"
	"schemematch/pkg/platform/circuit"
	"schemematch/pkg/requestcontext"
)

const (
	// DefaultSchedule reloads the catalog once a day.
	DefaultSchedule = "@every 24h"
	// DefaultLoadTimeout bounds one primary or fallback load.
	DefaultLoadTimeout = 30 * time.Second

	auditSubject = "catalog"
	flightKey    = "refresh"
)

// Result values recorded in the refresh counter.
const (
	resultSuccess  = "success"
	resultFallback = "fallback"
	resultFailure  = "failure"
)

// Refresher loads catalog documents into a Catalog.
type Refresher struct {
	catalog        *catalog.Catalog
	primary        ports.CatalogSource
	cache          ports.CatalogCache
	breaker        *circuit.Breaker
	schedule       string
	loadTimeout    time.Duration
	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics

	group singleflight.Group
	cron  *cron.Cron
}

type Option func(*Refresher)

// WithCache enables write-through to, and fallback from, the cache.
func WithCache(cache ports.CatalogCache) Option {
	return func(r *Refresher) {
		r.cache = cache
	}
}

// WithBreaker replaces the default primary-source breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Refresher) {
		if b != nil {
			r.breaker = b
		}
	}
}

// WithSchedule sets the cron spec used by Start. Standard five-field specs and
// descriptors such as "@hourly" or "@every 6h" are accepted.
func WithSchedule(spec string) Option {
	return func(r *Refresher) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

func WithLoadTimeout(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.loadTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		r.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(r *Refresher) {
		r.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Refresher) {
		r.metrics = m
	}
}

func New(c *catalog.Catalog, primary ports.CatalogSource, opts ...Option) *Refresher {
	r := &Refresher{
		catalog:     c,
		primary:     primary,
		breaker:     circuit.New("catalog-" + primary.Name()),
		schedule:    DefaultSchedule,
		loadTimeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh reloads the catalog and returns the snapshot now being served.
// Concurrent calls share one load. The load runs detached from the caller's
// cancellation so an abandoned request cannot abort it for the other waiters.
func (r *Refresher) Refresh(ctx context.Context) (*catalog.Snapshot, error) {
	ch := r.group.DoChan(flightKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()
		return r.refresh(loadCtx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*catalog.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Refresher) refresh(ctx context.Context) (*catalog.Snapshot, error) {
	snap, doc, primaryErr := r.loadPrimary(ctx)
	if primaryErr == nil {
		r.primarySucceeded(ctx, snap, doc)
		return snap, nil
	}

	useFallback, change := r.breaker.RecordFailure()
	if change.Opened {
		r.metrics.SetFallbackActive(true)
		if r.logger != nil {
			r.logger.WarnContext(ctx, "catalog source breaker opened", "source", r.primary.Name())
		}
	}

	current := r.catalog.Snapshot()
	if r.cache == nil || (!useFallback && current.Version() > 0) {
		r.metrics.IncrementRefresh(r.primary.Name(), resultFailure)
		r.logAudit(ctx, audit.EventCatalogRefreshFailed, current, r.primary.Name(), primaryErr)
		return nil, primaryErr
	}

	snap, fallbackErr := r.loadFallback(ctx)
	if fallbackErr != nil {
		err := errors.Join(primaryErr, fallbackErr)
		r.metrics.IncrementRefresh(r.cache.Name(), resultFailure)
		r.logAudit(ctx, audit.EventCatalogRefreshFailed, current, r.cache.Name(), err)
		return nil, err
	}

	r.metrics.IncrementRefresh(r.cache.Name(), resultFallback)
	r.metrics.SetCatalog(snap.Version(), snap.Len())
	r.logAudit(ctx, audit.EventCatalogFallbackUsed, snap, r.cache.Name(), primaryErr)
	return snap, nil
}

// loadPrimary loads and publishes from the primary source. A document the
// catalog rejects counts as a primary failure.
func (r *Refresher) loadPrimary(ctx context.Context) (*catalog.Snapshot, *catalog.Document, error) {
	doc, err := r.primary.Load(ctx)
	if err != nil {
		return nil, nil, wrapLoadError(err, r.primary.Name())
	}
	snap, err := r.catalog.RefreshDocument(doc, catalog.WithSource(r.primary.Name()))
	if err != nil {
		return nil, nil, err
	}
	return snap, doc, nil
}

func (r *Refresher) loadFallback(ctx context.Context) (*catalog.Snapshot, error) {
	doc, err := r.cache.Load(ctx)
	if err != nil {
		return nil, wrapLoadError(err, r.cache.Name())
	}
	return r.catalog.RefreshDocument(doc, catalog.WithSource(r.cache.Name()))
}

func (r *Refresher) primarySucceeded(ctx context.Context, snap *catalog.Snapshot, doc *catalog.Document) {
	usePrimary, change := r.breaker.RecordSuccess()
	if change.Closed && r.logger != nil {
		r.logger.InfoContext(ctx, "catalog source breaker closed", "source", r.primary.Name())
	}

	r.metrics.IncrementRefresh(r.primary.Name(), resultSuccess)
	r.metrics.SetCatalog(snap.Version(), snap.Len())
	r.logAudit(ctx, audit.EventCatalogRefreshed, snap, r.primary.Name(), nil)

	// Until the breaker closes the primary is on probation: serve it, but do
	// not let it overwrite the last known good copy.
	if !usePrimary {
		return
	}
	r.metrics.SetFallbackActive(false)
	if r.cache == nil {
		return
	}
	if err := r.cache.Save(ctx, doc); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "failed to cache catalog", "cache", r.cache.Name(), "error", err)
	}
}

// Start runs one refresh and then schedules the rest. A failed initial refresh
// is logged, not returned: the fallback may still have published a snapshot,
// and the schedule retries either way.
func (r *Refresher) Start(ctx context.Context) error {
	schedule, err := cron.ParseStandard(r.schedule)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("invalid refresh schedule %q", r.schedule))
	}

	if _, err := r.Refresh(ctx); err != nil && r.logger != nil {
		r.logger.ErrorContext(ctx, "initial catalog refresh failed", "error", err)
	}

	r.cron = cron.New()
	r.cron.Schedule(schedule, cron.FuncJob(func() {
		jobCtx := requestcontext.WithActor(context.Background(), "scheduler")
		if _, err := r.Refresh(jobCtx); err != nil && r.logger != nil {
			r.logger.ErrorContext(jobCtx, "scheduled catalog refresh failed", "error", err)
		}
	}))
	r.cron.Start()
	if r.logger != nil {
		r.logger.InfoContext(ctx, "catalog refresh scheduled", "schedule", r.schedule)
	}
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish or ctx
// to expire.
func (r *Refresher) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func wrapLoadError(err error, source string) error {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("catalog source %s unavailable", source))
}

func (r *Refresher) logAudit(ctx context.Context, event audit.AuditEvent, snap *catalog.Snapshot, source string, cause error) {
	args := []any{
		"event", string(event),
		"log_type", "audit",
		"source", source,
		"catalog_version", snap.Version(),
		"programs", snap.Len(),
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if cause != nil {
		args = append(args, "error", cause)
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, string(event), args...)
	}
	if r.auditPublisher == nil {
		return
	}
	e := audit.Event{
		Subject:        auditSubject,
		Action:         string(event),
		Decision:       source,
		RequestID:      requestcontext.RequestID(ctx),
		ActorID:        requestcontext.Actor(ctx),
		CatalogVersion: snap.Version(),
	}
	if cause != nil {
		e.Reason = cause.Error()
	}
	if err := r.auditPublisher.Emit(ctx, e); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
