package catalog

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"marquee/internal/cache"
	"marquee/internal/domain"
)

// Dispatcher parses request options, selects the resolver for the
// requested media kind and orchestrates cache lookup, resolution,
// normalization and the cache store. Resolvers are registered explicitly
// at startup; there is no name-based lookup.
type Dispatcher struct {
	resolvers map[MediaKind]Resolver

	cache        *cache.Cache
	cacheEnabled bool
	runner       Runner
	norm         *Normalizer
	gate         Gate
	defaults     ParseDefaults
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil cache disables caching.
func NewDispatcher(c *cache.Cache, runner Runner, norm *Normalizer, gate Gate, defaults ParseDefaults, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if gate == nil {
		gate = OpenGate{}
	}
	return &Dispatcher{
		resolvers:    make(map[MediaKind]Resolver),
		cache:        c,
		cacheEnabled: c != nil,
		runner:       runner,
		norm:         norm,
		gate:         gate,
		defaults:     defaults,
		logger:       logger,
	}
}

// Register binds a resolver to a media kind
func (d *Dispatcher) Register(kind MediaKind, r Resolver) {
	d.resolvers[kind] = r
}

// Serve resolves a request and hands the terminated listing to the
// presentation sink exactly once, success or failure.
func (d *Dispatcher) Serve(ctx context.Context, rawOptions map[string]string, sink domain.Sink) {
	listing := d.Resolve(ctx, rawOptions)
	sink.Done(listing.Items, listing.ContentKind, listing.OK)
}

// Resolve turns a flat request option mapping into an ordered item
// listing. Failures of the remote source or the readiness gate abort
// the request with a failed (but terminated) listing; an unregistered
// kind yields an empty successful one.
func (d *Dispatcher) Resolve(ctx context.Context, rawOptions map[string]string) domain.Listing {
	req := ParseOptions(rawOptions, d.defaults)
	contentKind := req.ContentKind()
	useCache := d.cacheEnabled && !req.SkipCache
	key := DeriveKey(req)

	if useCache {
		if items, ok := d.cache.Get(key, req.Reload); ok {
			d.logger.Debug("cache hit",
				"kind", req.Kind, "action", req.Action, "key", key, "checksum", req.Reload)
			return domain.Listing{Items: items, ContentKind: contentKind, OK: true}
		}
	}

	resolver, ok := d.resolvers[req.Kind]
	if !ok {
		d.logger.Error("unresolvable request",
			"kind", req.Kind, "action", req.Action, "error", domain.ErrUnknownResolver)
		return domain.Listing{Items: []*domain.Item{}, ContentKind: contentKind, OK: true}
	}

	if resolver.Remote(req) {
		if err := d.gate.Wait(ctx); err != nil {
			d.logger.Error("request aborted before resolution", "kind", req.Kind, "error", err)
			return domain.Listing{ContentKind: contentKind, OK: false}
		}
	}

	raws, err := resolver.Resolve(ctx, req)
	if err != nil {
		d.logger.Error("resolution failed",
			"kind", req.Kind, "action", req.Action, "error", err)
		return domain.Listing{ContentKind: contentKind, OK: false}
	}

	items := d.runner.Map(d.norm.Normalize, raws)

	if req.Randomize || req.Random {
		rand.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
	}

	if useCache {
		if err := d.cache.Set(key, req.Reload, items); err != nil {
			d.logger.Warn("cache store failed", "key", key, "error", err)
		}
	}

	d.logger.Info("resolved listing",
		"kind", req.Kind, "action", req.Action, "items", len(items), "cached", useCache)
	return domain.Listing{Items: items, ContentKind: contentKind, OK: true}
}
