// internal/store/redis_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nav-edge/internal/mapcmd"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	IdemTTL  time.Duration
	// MapChannel is the pub/sub channel the map widget subscribes to.
	MapChannel string
	Codec      mapcmd.Codec
}

type RedisStore struct {
	Rdb        *redis.Client
	IdemTTL    time.Duration
	MapChannel string
	codec      mapcmd.Codec
}

func NewRedisStore(ctx context.Context, opts Options) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis %s: %w", opts.Addr, err)
	}
	return newRedisStore(rdb, opts)
}

func newRedisStore(rdb *redis.Client, opts Options) (*RedisStore, error) {
	codec := opts.Codec
	if codec == nil {
		var err error
		if codec, err = mapcmd.NewCodec(mapcmd.CodecJSON); err != nil {
			return nil, err
		}
	}
	return &RedisStore{
		Rdb:        rdb,
		IdemTTL:    opts.IdemTTL,
		MapChannel: opts.MapChannel,
		codec:      codec,
	}, nil
}

func (s *RedisStore) Close() error {
	return s.Rdb.Close()
}

// Idempotency: returns true if this (device,seq) is NEW and we should process.
func (s *RedisStore) CheckIdempotency(ctx context.Context, device string, seq int64) (bool, error) {
	key := fmt.Sprintf("idem:%s:%d", device, seq)
	return s.Rdb.SetNX(ctx, key, 1, s.IdemTTL).Result()
}

// Publish sends map widget commands in order on MapChannel.
func (s *RedisStore) Publish(ctx context.Context, cmds ...mapcmd.Command) error {
	if len(cmds) == 0 {
		return nil
	}
	pipe := s.Rdb.Pipeline()
	for _, c := range cmds {
		data, err := s.codec(c)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c.Kind, err)
		}
		pipe.Publish(ctx, s.MapChannel, data)
	}
	_, err := pipe.Exec(ctx)
	return err
}
