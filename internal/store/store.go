// Package store persists interview sessions between CLI invocations.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spigell/interview-coach/internal/interview"
)

const (
	DriverFile  = "file"
	DriverRedis = "redis"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Save(ctx context.Context, session *interview.Session) error
	Load(ctx context.Context, id string) (*interview.Session, error)
}

type Config struct {
	Driver string      `mapstructure:"driver" validate:"oneof=file redis"`
	Dir    string      `mapstructure:"dir"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// New opens the store selected by cfg.Driver. The returned close function releases connections.
func New(ctx context.Context, cfg Config) (Store, func() error, error) {
	switch cfg.Driver {
	case DriverFile, "":
		return NewFileStore(cfg.Dir), func() error { return nil }, nil
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(client, cfg.Redis.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// validateID rejects anything that is not a session id, keeping ids safe for file names and keys.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid session id %q: %w", id, err)
	}
	return nil
}
