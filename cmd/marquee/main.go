package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"marquee/internal/cache"
	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/domain"
	"marquee/internal/index"
	"marquee/internal/log"
	"marquee/internal/plex"
)

// Version is set at build time via -ldflags
var Version = "dev"

// dispatchBase is the path folder items dispatch back into
const dispatchBase = "marquee://catalog"

func main() {
	var showVersion bool
	var request string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&request, "request", "", "request options as a query string, e.g. 'mediatype=episodes&action=nextup&tag=continue'")
	flag.Parse()

	if showVersion {
		fmt.Printf("marquee %s\n", Version)
		return
	}

	if err := run(request); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(request string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.Setup(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.Null()
	}
	slog.SetDefault(logger)

	logger.Info("starting marquee", "version", Version)

	if !cfg.IsConfigured() {
		return fmt.Errorf("no server configured; set server.url and server.token in the config file")
	}

	options, err := parseRequest(request)
	if err != nil {
		return err
	}

	client := plex.NewClient(cfg.Server.URL, cfg.Server.Token, logger)

	idx, err := openIndex(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer idx.Close()

	var listingCache *cache.Cache
	if cfg.Cache.Enabled {
		listingCache, err = cache.New(cfg.Cache.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to open listing cache: %w", err)
		}
		defer listingCache.Close()
	}

	nctx := catalog.NormalizeContext{
		AppendShowTitle:     cfg.Catalog.AppendShowTitle,
		AppendSeasonEpisode: cfg.Catalog.AppendSeasonEpisode,
	}

	norm := catalog.NewNormalizer(idx, cfg.Server.URL, dispatchBase, nctx, logger)
	runner := catalog.NewRunner(cfg.Catalog.Parallel, logger)
	gate := catalog.NewAuthGate(func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Ready(ctx)
	}, time.Duration(cfg.Catalog.AuthWaitMax)*time.Second, logger)

	defaults := catalog.ParseDefaults{
		Limit:       cfg.Catalog.DefaultLimit,
		HideWatched: cfg.Catalog.HideWatched,
	}

	dispatcher := catalog.NewDispatcher(listingCache, runner, norm, gate, defaults, logger)
	registerResolvers(dispatcher, client, idx, nctx, cfg, logger)

	sink := newConsoleSink(os.Stdout)
	dispatcher.Serve(context.Background(), options, sink)

	logger.Info("shutting down")
	if !sink.ok {
		return fmt.Errorf("listing failed; see log for details")
	}
	return nil
}

// registerResolvers binds one resolver per media kind. The search-backed
// views hang off the library kinds through an action router.
func registerResolvers(d *catalog.Dispatcher, client *plex.Client, idx domain.Index, nctx catalog.NormalizeContext, cfg *config.Config, logger *slog.Logger) {
	selector := catalog.NewSelector(idx, cfg.Catalog.ExcludeSpecials, logger)

	library := catalog.NewLibraryResolver(client)
	search := catalog.NewSearchResolver(client)
	searchable := catalog.NewActionRouter(library, map[string]catalog.Resolver{
		"search":  search,
		"similar": search,
	})

	d.Register(catalog.KindEpisodes, catalog.NewEpisodesResolver(idx, client, selector, nctx, cfg.Catalog.OnDeckExtended, logger))

	for _, kind := range []catalog.MediaKind{
		catalog.KindMovies, catalog.KindTVShows, catalog.KindMusicVideos,
		catalog.KindPVR, catalog.KindAlbums, catalog.KindSongs,
		catalog.KindArtists, catalog.KindMedia, catalog.KindFavourites,
	} {
		d.Register(kind, searchable)
	}

	d.Register(catalog.KindHub, catalog.NewHubResolver(client, dispatchBase))
	d.Register(catalog.KindPlaylists, catalog.NewPlaylistsResolver(client, dispatchBase))
	d.Register(catalog.KindBrowse, catalog.NewBrowseResolver(client))
	d.Register(catalog.KindWatchLater, catalog.NewWatchLaterResolver(client))
	d.Register(catalog.KindMain, catalog.NewMainResolver(client, dispatchBase))
}

// openIndex opens the SQLite index when a path is configured and falls
// back to an empty in-memory one otherwise
func openIndex(path string) (domain.Index, error) {
	if path == "" {
		return index.NewMemory(), nil
	}
	return index.Open(path)
}

// parseRequest decodes the -request query string into flat options
func parseRequest(request string) (map[string]string, error) {
	values, err := url.ParseQuery(request)
	if err != nil {
		return nil, fmt.Errorf("invalid request options: %w", err)
	}
	options := make(map[string]string, len(values))
	for k := range values {
		options[k] = values.Get(k)
	}
	return options, nil
}
