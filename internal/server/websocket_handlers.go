package server

import (
	"context"
	"encoding/json"
	"strconv"

	"almanac/internal/middleware"
	"almanac/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ShareFeedHandler upgrades an authenticated share-view request to a
// WebSocket and streams calendar updates for that client. The connection
// immediately receives the current calendar so late joiners don't wait for
// the next change.
func (s *Server) ShareFeedHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		clientID, ok := conn.Locals("clientID").(uint)
		if !ok {
			// Operator tokens are not pinned to one client; take the route param.
			id, err := strconv.ParseUint(conn.Params("clientId"), 10, 64)
			if err != nil || id == 0 {
				_ = conn.Close()
				return
			}
			clientID = uint(id)
		}

		client := s.hub.Register(conn, clientID)
		go client.WritePump()

		s.sendCalendarSnapshot(client)

		// Blocks until the peer disconnects; unregisters itself on exit.
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}

// sendCalendarSnapshot pushes the client's current sorted calendar as the
// first feed message.
func (s *Server) sendCalendarSnapshot(client *notifications.Client) {
	posts, err := s.shareService.SharedPosts(context.Background(), client.ClientID, "")
	if err != nil {
		middleware.Logger.Warn("share feed: snapshot load failed",
			"client_id", client.ClientID, "error", err.Error())
		return
	}

	message, err := json.Marshal(notifications.CalendarUpdate{
		Type:     "calendar_snapshot",
		ClientID: client.ClientID,
		Posts:    posts,
	})
	if err != nil {
		return
	}
	select {
	case client.Send <- message:
	default:
	}
}
