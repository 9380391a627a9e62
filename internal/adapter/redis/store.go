// Package redis stores documents in Redis hashes: one hash per parent path,
// one JSON field per document.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const maxUpdateAttempts = 5

// Store is a Redis-backed document store.
type Store struct {
	client *goredis.Client
	prefix string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Set replaces the document at path.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	key, field := s.locate(path)
	if err := s.client.HSet(ctx, key, field, data).Err(); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// Update shallow-merges fields into the document at path. The read and write
// run in a WATCH transaction and are retried when the hash changes underneath.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	key, field := s.locate(path)

	txn := func(tx *goredis.Tx) error {
		current, err := tx.HGet(ctx, key, field).Bytes()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		merged, err := domain.MergeFields(current, fields)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, field, merged)
			return nil
		})
		return err
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("update %s: %w", path, goredis.TxFailedErr)
}

// Delete removes the document at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	key, field := s.locate(path)
	if err := s.client.HDel(ctx, key, field).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Children returns the documents directly beneath path.
func (s *Store) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	all, err := s.client.HGetAll(ctx, s.hashKey(strings.Trim(path, "/"))).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	out := make(map[string]json.RawMessage, len(all))
	for name, doc := range all {
		out[name] = json.RawMessage(doc)
	}
	return out, nil
}

// CheckReadiness pings Redis.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) locate(path string) (key, field string) {
	parent, name := domain.SplitPath(path)
	return s.hashKey(parent), name
}

func (s *Store) hashKey(parent string) string {
	switch {
	case parent == "":
		return s.prefix
	case s.prefix == "":
		return parent
	default:
		return s.prefix + ":" + parent
	}
}
