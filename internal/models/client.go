package models

import (
	"strconv"
	"time"
)

// Client represents a tenant whose content calendar is managed.
type Client struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	ThemeColor string `json:"theme_color"`
	// PasswordHash is the bcrypt hash gating the public share view.
	// Never serialized in API responses.
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	Description  string    `json:"description,omitempty"`
	// PostsCount is not persisted; computed at query time
	PostsCount int       `json:"posts_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ShareURL builds the public share link for this client.
func (c *Client) ShareURL(origin string) string {
	return origin + "/shared/client/" + strconv.FormatUint(uint64(c.ID), 10)
}
