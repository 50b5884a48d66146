// Package repository provides data access layer implementations over the
// relational backend.
package repository

import (
	"sort"
	"time"

	"almanac/internal/models"

	"gorm.io/gorm"
)

// Row types mirror the relational schema (snake_case columns, join tables).
// They never leave this package: everything above it works with the canonical
// models, converted through the adapters below.

type clientRow struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	ThemeColor   string
	PasswordHash string
	Active       bool `gorm:"default:true"`
	Description  string
	// PostsCount is a SELECT alias computed per query, never persisted.
	PostsCount int `gorm:"->;-:migration"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (clientRow) TableName() string { return "clients" }

type postRow struct {
	ID        uint   `gorm:"primaryKey"`
	ClientID  uint   `gorm:"not null;index"`
	Date      string `gorm:"not null"`
	Year      int
	Day       string
	DayOfWeek string
	Title     string `gorm:"not null"`
	Text      string `gorm:"type:text"`
	Type      string
	PostType  string
	Completed bool   `gorm:"default:false"`
	Notes     string `gorm:"type:text"`

	SocialNetworks []postSocialNetworkRow `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Images         []postImageRow         `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (postRow) TableName() string { return "calendar_posts" }

type postSocialNetworkRow struct {
	ID       uint   `gorm:"primaryKey"`
	PostID   uint   `gorm:"not null;index"`
	Network  string `gorm:"not null"`
	Position int
}

func (postSocialNetworkRow) TableName() string { return "post_social_networks" }

type postImageRow struct {
	ID       uint   `gorm:"primaryKey"`
	PostID   uint   `gorm:"not null;index"`
	URL      string `gorm:"not null"`
	Position int
}

func (postImageRow) TableName() string { return "post_images" }

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&clientRow{},
		&postRow{},
		&postSocialNetworkRow{},
		&postImageRow{},
	)
}

// rowToPost converts a relational row into the canonical Post. Join rows are
// ordered by their stored position so insertion order survives the round trip.
func rowToPost(r postRow) models.Post {
	sort.Slice(r.SocialNetworks, func(a, b int) bool {
		return r.SocialNetworks[a].Position < r.SocialNetworks[b].Position
	})
	sort.Slice(r.Images, func(a, b int) bool {
		return r.Images[a].Position < r.Images[b].Position
	})

	networks := make([]string, 0, len(r.SocialNetworks))
	for _, n := range r.SocialNetworks {
		networks = append(networks, n.Network)
	}
	images := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		images = append(images, img.URL)
	}

	return models.Post{
		ID:             r.ID,
		ClientID:       r.ClientID,
		Date:           r.Date,
		Year:           r.Year,
		Day:            r.Day,
		DayOfWeek:      r.DayOfWeek,
		Title:          r.Title,
		Text:           r.Text,
		Type:           r.Type,
		PostType:       r.PostType,
		Completed:      r.Completed,
		Notes:          r.Notes,
		Images:         images,
		SocialNetworks: networks,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// postToRow converts a canonical Post into its relational representation.
func postToRow(p models.Post) postRow {
	networks := make([]postSocialNetworkRow, 0, len(p.SocialNetworks))
	for i, n := range p.SocialNetworks {
		networks = append(networks, postSocialNetworkRow{PostID: p.ID, Network: n, Position: i})
	}
	images := make([]postImageRow, 0, len(p.Images))
	for i, url := range p.Images {
		images = append(images, postImageRow{PostID: p.ID, URL: url, Position: i})
	}

	return postRow{
		ID:             p.ID,
		ClientID:       p.ClientID,
		Date:           p.Date,
		Year:           p.Year,
		Day:            p.Day,
		DayOfWeek:      p.DayOfWeek,
		Title:          p.Title,
		Text:           p.Text,
		Type:           p.Type,
		PostType:       p.PostType,
		Completed:      p.Completed,
		Notes:          p.Notes,
		SocialNetworks: networks,
		Images:         images,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func rowToClient(r clientRow) models.Client {
	return models.Client{
		ID:           r.ID,
		Name:         r.Name,
		ThemeColor:   r.ThemeColor,
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
		Description:  r.Description,
		PostsCount:   r.PostsCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func clientToRow(c models.Client) clientRow {
	return clientRow{
		ID:           c.ID,
		Name:         c.Name,
		ThemeColor:   c.ThemeColor,
		PasswordHash: c.PasswordHash,
		Active:       c.Active,
		Description:  c.Description,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
