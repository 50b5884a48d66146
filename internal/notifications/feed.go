package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"almanac/internal/fallback"
	"almanac/internal/middleware"
	"almanac/internal/models"
	"almanac/internal/schedule"
)

// CalendarUpdate is the message pushed to share-view connections whenever the
// calendar collection changes.
type CalendarUpdate struct {
	Type     string        `json:"type"`
	ClientID uint          `json:"client_id"`
	Posts    []models.Post `json:"posts"`
}

// Feed subscribes to the calendar collection's push channel and fans each
// change out to the hub, one per-client message per watched client. When the
// push channel is unavailable the feed is silently inert and share views fall
// back to plain request/response reads.
type Feed struct {
	hub   *Hub
	store *fallback.Store
	unsub func()
}

// NewFeed creates a feed over the given hub and fallback store.
func NewFeed(hub *Hub, store *fallback.Store) *Feed {
	return &Feed{hub: hub, store: store}
}

// Start opens the subscription. Call Stop to release it.
func (f *Feed) Start(ctx context.Context) {
	f.unsub = f.store.Subscribe(ctx, fallback.CollectionPosts, func(data json.RawMessage) {
		f.dispatch(ctx, data)
	})
}

// Stop releases the subscription and shuts the hub down.
func (f *Feed) Stop() {
	if f.unsub != nil {
		f.unsub()
		f.unsub = nil
	}
	f.hub.Shutdown()
}

// dispatch splits the full collection by client and pushes each watched
// client's sorted subset. A client with watchers but no remaining posts still
// receives an empty update so deletions propagate.
func (f *Feed) dispatch(ctx context.Context, data json.RawMessage) {
	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		middleware.Logger.ErrorContext(ctx, "share feed: malformed calendar payload",
			slog.String("error", err.Error()))
		return
	}

	byClient := make(map[uint][]models.Post)
	for _, p := range posts {
		byClient[p.ClientID] = append(byClient[p.ClientID], p)
	}

	for _, clientID := range f.hub.WatchedClients() {
		subset := byClient[clientID]
		if subset == nil {
			subset = []models.Post{}
		}
		sorted, err := schedule.SortByDate(subset)
		if err != nil {
			// A malformed date should never reach storage; push unsorted rather
			// than dropping the update.
			middleware.Logger.WarnContext(ctx, "share feed: unsortable subset",
				slog.Any("client_id", clientID), slog.String("error", err.Error()))
			sorted = subset
		}
		update := CalendarUpdate{
			Type:     "calendar_update",
			ClientID: clientID,
			Posts:    sorted,
		}
		message, err := json.Marshal(update)
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "share feed: marshal failed",
				slog.String("error", err.Error()))
			continue
		}
		f.hub.Broadcast(clientID, message)
	}
}
