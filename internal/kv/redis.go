package kv

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"almanac/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix     = "doc:"
	docChannelPrefix = "docs:"
)

// RedisStore implements Store on top of Redis: documents live as JSON strings
// at doc:<path> keys, and every Set/Delete publishes the new value on the
// docs:<path> channel so subscribers see changes pushed.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a document store backed by the given Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Connect dials Redis from an address or URL and verifies the connection.
// A nil store and error are returned when Redis is unreachable; callers
// degrade to cache-only operation in that case.
func Connect(addr string) (*RedisStore, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return NewRedisStore(rdb), nil
}

// Client exposes the underlying Redis client for collaborators that share the
// connection (rate limiting, the share feed hub).
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

func (s *RedisStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	val, err := s.rdb.Get(ctx, docKeyPrefix+path).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		middleware.DocumentStoreErrors.WithLabelValues("get").Inc()
		return nil, err
	}
	return json.RawMessage(val), nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, docKeyPrefix+path, b, 0).Err(); err != nil {
		middleware.DocumentStoreErrors.WithLabelValues("set").Inc()
		return err
	}
	// Best-effort push; a failed publish must not fail the write.
	if err := s.rdb.Publish(ctx, docChannelPrefix+path, string(b)).Err(); err != nil {
		middleware.DocumentStoreErrors.WithLabelValues("publish").Inc()
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.rdb.Del(ctx, docKeyPrefix+path).Err(); err != nil {
		middleware.DocumentStoreErrors.WithLabelValues("del").Inc()
		return err
	}
	if err := s.rdb.Publish(ctx, docChannelPrefix+path, "").Err(); err != nil {
		middleware.DocumentStoreErrors.WithLabelValues("publish").Inc()
	}
	return nil
}

// Subscribe listens on the document's pub/sub channel and invokes onChange
// with each new value, or nil when the document was deleted. The returned
// unsubscribe closes the underlying Redis subscription.
func (s *RedisStore) Subscribe(ctx context.Context, path string, onChange func(json.RawMessage)) (func(), error) {
	sub := s.rdb.Subscribe(ctx, docChannelPrefix+path)

	// Force the subscription to be established before returning so callers
	// never miss events published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		middleware.DocumentStoreErrors.WithLabelValues("subscribe").Inc()
		return nil, err
	}

	ch := sub.Channel()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload == "" {
					onChange(nil)
					continue
				}
				onChange(json.RawMessage(msg.Payload))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			if err := sub.Close(); err != nil {
				log.Printf("kv: closing subscription for %s: %v", path, err)
			}
		})
	}, nil
}
