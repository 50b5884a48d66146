// Package seed creates demo clients and calendars for development and
// testing. Not wired into production startup.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"almanac/internal/models"
	"almanac/internal/repository"
	"almanac/internal/schedule"
	"almanac/internal/store"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// Options configuration for the seeder
type Options struct {
	NumClients      int
	PostsPerClient  int
	DefaultPassword string
}

var (
	themeColors = []string{
		"#e63946", "#f4a261", "#2a9d8f", "#264653", "#e76f51",
		"#6d597a", "#355070", "#b56576", "#0077b6", "#588157",
	}

	postTypes = [][]string{
		{models.PostTypeFeed},
		{models.PostTypeStories},
		{models.PostTypeReels},
		{models.PostTypeFeed, models.PostTypeStories},
		{models.PostTypeReels, models.PostTypeStories},
	}

	socialNetworks = [][]string{
		{"instagram"},
		{"instagram", "facebook"},
		{"instagram", "tiktok"},
		{"facebook", "linkedin"},
	}
)

// Seeder populates both persistence surfaces: clients in the relational
// store, posts through whichever post backend is active.
type Seeder struct {
	clients repository.ClientRepository
	posts   store.PostStore
	rng     *rand.Rand
}

// NewSeeder creates a new seeder.
func NewSeeder(clients repository.ClientRepository, posts store.PostStore) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		clients: clients,
		posts:   posts,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run creates opts.NumClients demo clients, each with a themed calendar of
// opts.PostsPerClient posts spread over the current year.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	if opts.NumClients <= 0 {
		opts.NumClients = 5
	}
	if opts.PostsPerClient <= 0 {
		opts.PostsPerClient = 12
	}
	if opts.DefaultPassword == "" {
		opts.DefaultPassword = "demo"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	nextPostID := uint(1)
	for i := 0; i < opts.NumClients; i++ {
		client := &models.Client{
			Name:         gofakeit.Company(),
			ThemeColor:   themeColors[s.rng.Intn(len(themeColors))],
			PasswordHash: string(hash),
			Active:       true,
			Description:  gofakeit.Sentence(8),
		}
		if err := s.clients.Create(ctx, client); err != nil {
			return fmt.Errorf("create client %q: %w", client.Name, err)
		}

		posts := make([]models.Post, 0, opts.PostsPerClient)
		for j := 0; j < opts.PostsPerClient; j++ {
			posts = append(posts, s.buildPost(nextPostID, client.ID))
			nextPostID++
		}
		if err := s.posts.ReplaceClientPosts(ctx, client.ID, posts, 0); err != nil {
			return fmt.Errorf("seed posts for client %d: %w", client.ID, err)
		}

		log.Printf("seeded client %d (%s) with %d posts", client.ID, client.Name, len(posts))
	}

	return nil
}

// buildPost creates one calendar entry with a valid display date in the
// current year.
func (s *Seeder) buildPost(id, clientID uint) models.Post {
	month := 1 + s.rng.Intn(12)
	day := 1 + s.rng.Intn(28)
	year := time.Now().Year()
	displayDate := fmt.Sprintf("%02d/%02d", day, month)

	date, _ := schedule.ParseDisplayDateInYear(displayDate, year)
	dayTok, dayOfWeek := schedule.DayTokens(date)

	types := postTypes[s.rng.Intn(len(postTypes))]
	post := models.Post{
		ID:             id,
		ClientID:       clientID,
		Date:           displayDate,
		Year:           year,
		Day:            dayTok,
		DayOfWeek:      dayOfWeek,
		Title:          gofakeit.Sentence(4),
		Text:           gofakeit.Paragraph(1, 2, 6, "\n"),
		Type:           strings.Join(types, models.TypeSeparator),
		PostType:       types[0],
		Completed:      s.rng.Intn(3) == 0,
		Images:         []string{},
		SocialNetworks: socialNetworks[s.rng.Intn(len(socialNetworks))],
	}
	if s.rng.Intn(4) == 0 {
		post.Notes = gofakeit.Sentence(6)
	}
	return post
}
