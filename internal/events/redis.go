package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yukikurage/agency-management-api/internal/logger"
)

type RedisPublisher struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisPublisher(addr, channel string, log *logger.Logger) (*RedisPublisher, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "agency.events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisPublisher(rdb, channel, log), nil
}

func newRedisPublisher(rdb *goredis.Client, channel string, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{
		log:     log.With("service", "RedisPublisher"),
		rdb:     rdb,
		channel: channel,
	}
}

// Publish sends the event on the shared channel and on each of its own channels.
func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis publisher not initialized")
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, p.channel, raw)
	for _, ch := range evt.Channels {
		pipe.Publish(ctx, ch, raw)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
