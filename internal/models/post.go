// Package models contains data structures for the application's domain models.
package models

import "time"

// Post type tags as they appear in the dashboard ("Feed", "Stories", "Reels").
const (
	PostTypeFeed    = "Feed"
	PostTypeStories = "Stories"
	PostTypeReels   = "Reels"
)

// TypeSeparator joins multiple content-format tags into the display Type string.
const TypeSeparator = " + "

// Post represents one scheduled content item on a client's calendar.
//
// Post is the canonical, backend-agnostic shape: the relational repository and
// the document store both map their own representations onto it, so nothing
// above the persistence layer ever sees row or document field names.
type Post struct {
	ID       uint `json:"id"`
	ClientID uint `json:"client_id"`
	// Date is the display date in DD/MM format.
	Date string `json:"date"`
	// Year pins the display date to a concrete year. Zero means "the current
	// year at parse time", which matches the historical behavior where dates
	// near the year boundary silently rolled over.
	Year      int    `json:"year,omitempty"`
	Day       string `json:"day"`
	DayOfWeek string `json:"day_of_week"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	// Type holds the full joined tag string (e.g. "Feed + Stories"),
	// PostType the first tag.
	Type      string `json:"type"`
	PostType  string `json:"post_type"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes"`
	// Images is an ordered list of attachment URLs. Append-only via upload,
	// removable by index.
	Images []string `json:"images"`
	// SocialNetworks preserves insertion order for display.
	SocialNetworks []string  `json:"social_networks"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
