// Package fallback presents a single read/write/subscribe API over the
// remote document store and the local snapshot cache, so callers never need
// to know which store ultimately served a read.
//
// The remote store is authoritative; the local cache is a best-effort offline
// mirror. Remote failures are absorbed here and degrade to cached or empty
// data instead of surfacing as errors.
package fallback

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"almanac/internal/kv"
	"almanac/internal/localcache"
	"almanac/internal/middleware"
	"almanac/internal/models"
)

// Source reports which store ultimately served a Load.
type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
	SourceEmpty  Source = "empty"
)

// Collection keys understood by the fallback layer. ClientAuthCollection
// builds the per-client share auth path.
const (
	CollectionSettings = "settings"
	CollectionPosts    = "calendarPosts"
)

// ClientAuthCollection returns the collection key for one client's share
// auth document.
func ClientAuthCollection(clientID uint) string {
	return "clientAuth/" + strconv.FormatUint(uint64(clientID), 10)
}

// Store wraps a remote document store with a local snapshot cache.
// A nil remote means the document store was unreachable at startup; the
// store then runs cache-only and every Save reports failure.
type Store struct {
	remote kv.Store
	local  localcache.Cache
}

// New creates a fallback store over the given remote and local stores.
func New(remote kv.Store, local localcache.Cache) *Store {
	return &Store{remote: remote, local: local}
}

// Load reads a collection, remote first. On remote success the local cache is
// overwritten with the remote value so the two stay convergent. On any remote
// failure the local cache serves the read; when that is also empty the
// collection's empty default is returned. Load never fails: the worst case is
// stale or empty data.
func (s *Store) Load(ctx context.Context, collection string) (json.RawMessage, Source) {
	if s.remote != nil {
		data, err := s.remote.Get(ctx, collection)
		if err == nil {
			if cerr := s.local.Set(cacheKeyFor(collection), data); cerr != nil {
				middleware.Logger.WarnContext(ctx, "fallback: cache mirror failed",
					slog.String("collection", collection), slog.String("error", cerr.Error()))
			}
			return data, SourceRemote
		}
		if err != kv.ErrNotFound {
			middleware.Logger.WarnContext(ctx, "fallback: remote load failed, using cache",
				slog.String("collection", collection), slog.String("error", err.Error()))
		}
	}

	if cached, ok := s.local.Get(cacheKeyFor(collection)); ok {
		middleware.FallbackDegradations.WithLabelValues(collection, string(SourceCache)).Inc()
		return cached, SourceCache
	}

	middleware.FallbackDegradations.WithLabelValues(collection, string(SourceEmpty)).Inc()
	return emptyDefault(collection), SourceEmpty
}

// Save writes a collection to the remote store and, on success, mirrors the
// identical value into the local cache (dual-write, remote-authoritative).
// On remote failure the local write is still attempted so a later Load has
// the latest intended value available offline, and false is reported to the
// caller. This is deliberate best-effort durability, not transactional
// consistency: the local cache is not rolled back when the remote write fails.
func (s *Store) Save(ctx context.Context, collection string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "fallback: marshal failed",
			slog.String("collection", collection), slog.String("error", err.Error()))
		return false
	}

	remoteOK := false
	if s.remote != nil {
		if err := s.remote.Set(ctx, collection, json.RawMessage(data)); err != nil {
			middleware.Logger.WarnContext(ctx, "fallback: remote save failed, caching locally",
				slog.String("collection", collection), slog.String("error", err.Error()))
		} else {
			remoteOK = true
		}
	}

	if err := s.local.Set(cacheKeyFor(collection), data); err != nil {
		middleware.Logger.WarnContext(ctx, "fallback: local save failed",
			slog.String("collection", collection), slog.String("error", err.Error()))
	}

	return remoteOK
}

// Subscribe registers for push notifications on a collection. Each remote
// change invokes onChange with the new value, or with the collection's empty
// default when the remote document was deleted. The returned unsubscribe is
// safe to call exactly once. There is no fallback subscription over the local
// cache: when the remote push channel is unavailable a no-op unsubscribe is
// returned and the caller simply receives no further updates.
func (s *Store) Subscribe(ctx context.Context, collection string, onChange func(json.RawMessage)) func() {
	if s.remote == nil {
		return func() {}
	}

	unsub, err := s.remote.Subscribe(ctx, collection, func(data json.RawMessage) {
		if data == nil {
			data = emptyDefault(collection)
		}
		// Keep the mirror current for the next offline load.
		if cerr := s.local.Set(cacheKeyFor(collection), data); cerr != nil {
			middleware.Logger.WarnContext(ctx, "fallback: cache mirror failed",
				slog.String("collection", collection), slog.String("error", cerr.Error()))
		}
		onChange(data)
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "fallback: subscribe unavailable",
			slog.String("collection", collection), slog.String("error", err.Error()))
		return func() {}
	}
	return unsub
}

// LoadPosts loads the full calendarPosts collection as canonical posts.
// Malformed stored data degrades to the empty collection rather than failing.
func (s *Store) LoadPosts(ctx context.Context) ([]models.Post, Source) {
	data, source := s.Load(ctx, CollectionPosts)

	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		middleware.Logger.ErrorContext(ctx, "fallback: stored posts malformed",
			slog.String("error", err.Error()))
		return []models.Post{}, SourceEmpty
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, source
}

// SavePosts replaces one client's posts inside the full calendarPosts
// collection. Writes are collection-replacing, not single-record upserts: the
// latest known full set is reconstituted (remote, else cache), every other
// client's posts are preserved untouched, any post matching deletedID is
// dropped, and the new subset is appended. A deletedID of zero means nothing
// is being deleted.
func (s *Store) SavePosts(ctx context.Context, clientID uint, subset []models.Post, deletedID uint) bool {
	full, _ := s.LoadPosts(ctx)

	merged := make([]models.Post, 0, len(full)+len(subset))
	for _, p := range full {
		if p.ClientID == clientID {
			continue
		}
		if deletedID != 0 && p.ID == deletedID {
			continue
		}
		merged = append(merged, p)
	}
	merged = append(merged, subset...)

	return s.Save(ctx, CollectionPosts, merged)
}

// LoadSettings loads the settings document, falling back to defaults when no
// settings were ever saved.
func (s *Store) LoadSettings(ctx context.Context) (*models.Settings, Source) {
	data, source := s.Load(ctx, CollectionSettings)

	var settings *models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		middleware.Logger.ErrorContext(ctx, "fallback: stored settings malformed",
			slog.String("error", err.Error()))
		return models.DefaultSettings(), SourceEmpty
	}
	if settings == nil {
		return models.DefaultSettings(), source
	}
	return settings, source
}

// SaveSettings persists the settings document.
func (s *Store) SaveSettings(ctx context.Context, settings *models.Settings) bool {
	return s.Save(ctx, CollectionSettings, settings)
}

// cacheKeyFor maps a collection key to its local cache key, following the
// historical local storage naming: "settings" -> "appSettings",
// "calendarPosts" -> "calendarPosts", "clientAuth/{id}" -> "client_auth_{id}".
func cacheKeyFor(collection string) string {
	switch {
	case collection == CollectionSettings:
		return "appSettings"
	case collection == CollectionPosts:
		return "calendarPosts"
	case strings.HasPrefix(collection, "clientAuth/"):
		return "client_auth_" + strings.TrimPrefix(collection, "clientAuth/")
	default:
		return strings.ReplaceAll(collection, "/", "_")
	}
}

// emptyDefault returns the value a collection degrades to when neither store
// has data: an empty sequence for posts, null for document-shaped collections.
func emptyDefault(collection string) json.RawMessage {
	if collection == CollectionPosts {
		return json.RawMessage("[]")
	}
	return json.RawMessage("null")
}
