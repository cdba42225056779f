package catalog

import (
	"context"

	"marquee/internal/plex"
)

// RemoteRecord is one raw tree node from the remote metadata source.
type RemoteRecord = plex.Metadata

// Section is one library section of the remote source
type Section = plex.Directory

// HubEntry is one aggregated feed entry with heterogeneous children
type HubEntry = plex.Hub

// Source is the remote metadata source the resolvers consume. The
// concrete Plex client implements it; tests supply fakes.
type Source interface {
	GetRecord(ctx context.Context, id string) (*RemoteRecord, error)
	GetChildren(ctx context.Context, key string) ([]RemoteRecord, error)
	GetSections(ctx context.Context) ([]Section, error)
	GetHubs(ctx context.Context) ([]HubEntry, error)
	GetOnDeck(ctx context.Context, sectionID string) ([]RemoteRecord, error)
	GetRecentlyAdded(ctx context.Context, sectionID string) ([]RemoteRecord, error)
	GetPlaylists(ctx context.Context) ([]RemoteRecord, error)
	GetWatchLater(ctx context.Context) ([]RemoteRecord, error)
	Search(ctx context.Context, query string) ([]RemoteRecord, error)
}
