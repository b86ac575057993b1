package datasync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"catalog-console/core/registry"
	"catalog-console/core/session"

	"go.uber.org/zap"
)

// ErrUnknownCollection is returned for keys missing from the catalog.
var ErrUnknownCollection = errors.New("unknown collection")

// SessionGuard is the part of the session the coordinator depends on.
type SessionGuard interface {
	CanViewAudit() bool
	Teardown(ctx context.Context) error
	OnTeardown(fn func())
}

// Observer receives fetch and cache statistics.
type Observer interface {
	ObserveFetch(source, key, outcome string, took time.Duration)
	ObserveCacheCheck(key string, fresh bool)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, string, string, time.Duration) {}
func (nopObserver) ObserveCacheCheck(string, bool)                     {}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets where user-visible notices go.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithClock overrides the time source of both caches.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) { c.ttl = ttl }
}

// WithAuditPath overrides the audit log API path.
func WithAuditPath(path string) Option {
	return func(c *Coordinator) { c.auditPath = path }
}

// Coordinator decides which sources a resync must read, reads them concurrently
// and merges the results into the caches and the view.
//
// Every network read is tagged with its cache key and a per-key generation. A
// result is applied only if its generation is still the newest for that key and,
// for the primary collection, the key is still the active one.
type Coordinator struct {
	catalog  *registry.Catalog
	fetcher  Fetcher
	session  SessionGuard
	notifier Notifier
	observer Observer
	logger   *zap.Logger

	ttl       time.Duration
	now       func() time.Time
	auditPath string

	records *Cache[registry.Record]
	audit   *Cache[AuditLogEntry]

	mu          sync.Mutex
	active      string
	generations map[string]uint64
	view        View
	loading     int
}

// NewCoordinator creates a coordinator and registers its Reset as a session
// teardown hook.
func NewCoordinator(catalog *registry.Catalog, fetcher Fetcher, guard SessionGuard, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		catalog:     catalog,
		fetcher:     fetcher,
		session:     guard,
		observer:    nopObserver{},
		logger:      logger,
		auditPath:   registry.AuditPath,
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = NewLogNotifier(logger)
	}
	c.records = NewCache[registry.Record](c.ttl, c.now)
	c.audit = NewCache[AuditLogEntry](c.ttl, c.now)

	if guard != nil {
		guard.OnTeardown(c.Reset)
	}
	return c
}

// RecordCache exposes the collection snapshot cache.
func (c *Coordinator) RecordCache() *Cache[registry.Record] { return c.records }

// AuditCache exposes the audit log snapshot cache.
func (c *Coordinator) AuditCache() *Cache[AuditLogEntry] { return c.audit }

// Catalog returns the collection catalog.
func (c *Coordinator) Catalog() *registry.Catalog { return c.catalog }

// Active returns the active collection key.
func (c *Coordinator) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Activate switches the active collection without any network read. The view
// shows the cached snapshot of the new key, if one exists.
func (c *Coordinator) Activate(key string) error {
	if _, ok := c.catalog.Lookup(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, key)
	}
	c.mu.Lock()
	c.activateLocked(key)
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) activateLocked(key string) {
	if c.active == key {
		return
	}
	c.active = key
	c.view.ActiveKey = key
	c.view.Records = nil
	if e, ok := c.records.Get(key); ok {
		c.view.Records = e.Data
	}
}

// View returns a snapshot of the current view state.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		ActiveKey: c.view.ActiveKey,
		Records:   slices.Clone(c.view.Records),
		CrossRef:  slices.Clone(c.view.CrossRef),
		Audit:     slices.Clone(c.view.Audit),
		Loading:   c.loading > 0,
	}
}

// Loading reports whether an InitialLoad or UserAction resync is running.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// Invalidate drops the cached snapshots of keys. Reads of keys already in
// flight are not shared with later resyncs.
func (c *Coordinator) Invalidate(keys ...string) {
	for _, k := range keys {
		c.forget(c.pathOf(k))
		if k == registry.KeyAuditLogs {
			c.audit.Invalidate(k)
			continue
		}
		c.records.Invalidate(k)
	}
}

func (c *Coordinator) pathOf(key string) string {
	if key == registry.KeyAuditLogs {
		return c.auditPath
	}
	if ref := c.catalog.CrossRef(); key == ref.Key() {
		return ref.APIPath()
	}
	if d, ok := c.catalog.Lookup(key); ok {
		return d.APIPath()
	}
	return ""
}

// forget detaches path from any read issued before the current generation, so
// a result is never older than the plan it is merged under.
func (c *Coordinator) forget(path string) {
	if f, ok := c.fetcher.(Forgetter); ok && path != "" {
		f.Forget(path)
	}
}

// Reset clears both caches and the view. Reads still in flight are discarded
// when they complete.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records.Clear()
	c.audit.Clear()
	for k := range c.generations {
		c.generations[k]++
	}
	c.active = ""
	c.view = View{}
}

// fetchPlan is one source read of a resync.
type fetchPlan struct {
	source     Source
	key        string
	path       string
	needed     bool
	generation uint64

	records []registry.Record
	audit   []AuditLogEntry
	err     error
	took    time.Duration
}

func (p *fetchPlan) run(ctx context.Context, f Fetcher) {
	start := time.Now()
	if p.source == SourceAudit {
		p.audit, p.err = f.FetchAudit(ctx, p.path)
	} else {
		p.records, p.err = f.FetchRecords(ctx, p.path)
	}
	p.took = time.Since(start)
}

// Resync makes key the active collection and brings the view up to date.
//
// The primary collection and the cross-reference list are read when the trigger
// is UserAction or their snapshot is stale. The audit log is read for InitialLoad
// and UserAction when the session may view it. Failed reads fall back to the
// cache. An authentication rejection tears the session down instead and the
// result carries session.ErrSessionExpired.
func (c *Coordinator) Resync(ctx context.Context, key string, trigger Trigger) Result {
	res := Result{Key: key, Trigger: trigger}
	desc, ok := c.catalog.Lookup(key)
	if !ok {
		res.Err = fmt.Errorf("%w: %s", ErrUnknownCollection, key)
		return res
	}

	if trigger.showsLoading() {
		c.mu.Lock()
		c.loading++
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			c.loading--
			c.mu.Unlock()
		}()
	}

	l := c.logger.With(zap.String("collection", key), zap.Stringer("trigger", trigger))

	c.mu.Lock()
	c.activateLocked(key)
	plans := c.planLocked(desc, trigger)
	for i := range plans {
		if plans[i].needed {
			c.forget(plans[i].path)
		}
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for i := range plans {
		if !plans[i].needed {
			continue
		}
		wg.Add(1)
		go func(p *fetchPlan) {
			defer wg.Done()
			p.run(ctx, c.fetcher)
		}(&plans[i])
	}
	wg.Wait()

	for i := range plans {
		if plans[i].err != nil && isSessionFailure(plans[i].err) {
			l.Warn("API rejected the session", zap.String("source", string(plans[i].source)), zap.Error(plans[i].err))
			c.expire(ctx)
			res.Err = session.ErrSessionExpired
			return res
		}
	}

	c.mu.Lock()
	for i := range plans {
		res.Outcomes = append(res.Outcomes, c.mergeLocked(key, &plans[i]))
	}
	c.mu.Unlock()

	c.report(l, trigger, res)
	return res
}

func (c *Coordinator) planLocked(desc *registry.Descriptor, trigger Trigger) []fetchPlan {
	crossRef := c.catalog.CrossRef()
	plans := []fetchPlan{
		c.recordPlanLocked(SourcePrimary, desc, trigger),
		c.recordPlanLocked(SourceCrossRef, crossRef, trigger),
	}
	if c.session != nil && c.session.CanViewAudit() {
		p := fetchPlan{
			source: SourceAudit,
			key:    registry.KeyAuditLogs,
			path:   c.auditPath,
			needed: trigger == UserAction || trigger == InitialLoad,
		}
		if p.needed {
			c.generations[p.key]++
			p.generation = c.generations[p.key]
		}
		plans = append(plans, p)
	}
	return plans
}

func (c *Coordinator) recordPlanLocked(src Source, desc *registry.Descriptor, trigger Trigger) fetchPlan {
	fresh := c.records.IsFresh(desc.Key())
	c.observer.ObserveCacheCheck(desc.Key(), fresh)

	p := fetchPlan{
		source: src,
		key:    desc.Key(),
		path:   desc.APIPath(),
		needed: trigger == UserAction || !fresh,
	}
	if p.needed {
		c.generations[p.key]++
		p.generation = c.generations[p.key]
	}
	return p
}

// mergeLocked applies one settled plan to the cache and the view.
func (c *Coordinator) mergeLocked(activeKey string, p *fetchPlan) Outcome {
	o := Outcome{Source: p.source, Key: p.key, Needed: p.needed}

	stale := p.needed && c.generations[p.key] != p.generation
	if p.source == SourcePrimary && c.active != activeKey {
		stale = true
	}
	if stale {
		o.Discarded = true
		c.observer.ObserveFetch(string(p.source), p.key, "discarded", p.took)
		return o
	}

	if p.needed && p.err == nil {
		switch p.source {
		case SourceAudit:
			c.audit.Put(p.key, p.audit)
			c.view.Audit = slices.Clone(p.audit)
			o.Count = len(p.audit)
		default:
			c.records.Put(p.key, p.records)
			c.setRecordsLocked(p.source, p.records)
			o.Count = len(p.records)
		}
		o.Applied = true
		c.observer.ObserveFetch(string(p.source), p.key, "success", p.took)
		return o
	}

	if p.err != nil {
		o.Err = &FetchError{Source: p.source, Key: p.key, Err: p.err}
		c.observer.ObserveFetch(string(p.source), p.key, "error", p.took)
	} else {
		c.observer.ObserveFetch(string(p.source), p.key, "cached", 0)
	}

	// Fall back to the last known-good snapshot; with none, keep the view as is.
	switch p.source {
	case SourceAudit:
		if e, ok := c.audit.Get(p.key); ok {
			c.view.Audit = e.Data
		}
		o.Count = len(c.view.Audit)
	default:
		if e, ok := c.records.Get(p.key); ok {
			c.setRecordsLocked(p.source, e.Data)
		}
		if p.source == SourcePrimary {
			o.Count = len(c.view.Records)
		} else {
			o.Count = len(c.view.CrossRef)
		}
	}
	return o
}

func (c *Coordinator) setRecordsLocked(src Source, records []registry.Record) {
	if src == SourcePrimary {
		c.view.Records = slices.Clone(records)
		return
	}
	c.view.CrossRef = slices.Clone(records)
}

func (c *Coordinator) expire(ctx context.Context) {
	if c.session != nil {
		if err := c.session.Teardown(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("Session teardown failed", zap.Error(err))
		}
	} else {
		c.Reset()
	}
	c.notifier.Notify(Notice{Level: LevelError, Message: "Session expired, please log in again"})
}

func (c *Coordinator) report(l *zap.Logger, trigger Trigger, res Result) {
	errs := res.FetchErrors()
	if len(errs) == 0 {
		l.Debug("Resync completed", zap.Int("sources", len(res.Outcomes)))
		return
	}

	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		l.Warn("Fetch failed, serving cached data", zap.String("source", string(fe.Source)), zap.Error(fe.Err))
		msgs = append(msgs, fe.Error())
	}
	if trigger.showsLoading() {
		c.notifier.Notify(Notice{
			Level:   LevelWarning,
			Message: "Some data could not be refreshed: " + strings.Join(msgs, "; "),
		})
	}
}

// Run revalidates the active collection every interval until ctx is done.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			key := c.Active()
			if key == "" {
				continue
			}
			if res := c.Resync(ctx, key, BackgroundRefresh); res.Err != nil {
				c.logger.Info("Background refresh failed", zap.String("collection", key), zap.Error(res.Err))
			}
		}
	}
}
