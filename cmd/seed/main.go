// Command seed populates the database with demo clients and calendars.
package main

import (
	"context"
	"flag"
	"log"

	"almanac/internal/config"
	"almanac/internal/database"
	"almanac/internal/fallback"
	"almanac/internal/kv"
	"almanac/internal/localcache"
	"almanac/internal/repository"
	"almanac/internal/seed"
	"almanac/internal/store"
)

func main() {
	numClients := flag.Int("clients", 5, "Number of demo clients to create")
	postsPerClient := flag.Int("posts", 12, "Number of posts per client")
	password := flag.String("password", "demo", "Share password for every demo client")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Posts are seeded through whichever backend PERSISTENCE_BACKEND selects,
	// so document-mode deployments get a populated document store too.
	var remote kv.Store
	if rs, rerr := kv.Connect(cfg.RedisURL); rerr != nil {
		log.Printf("WARNING: document store unavailable, seeding cache-only: %v", rerr)
	} else {
		remote = rs
	}
	cache, err := localcache.NewFileCache(cfg.CacheDir)
	if err != nil {
		log.Fatalf("Failed to open local cache: %v", err)
	}
	fb := fallback.New(remote, cache)

	clientRepo := repository.NewClientRepository(db)
	postRepo := repository.NewPostRepository(db)
	posts := store.ForConfig(cfg, postRepo, fb)

	s := seed.NewSeeder(clientRepo, posts)
	if err := s.Run(context.Background(), seed.Options{
		NumClients:      *numClients,
		PostsPerClient:  *postsPerClient,
		DefaultPassword: *password,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
