package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scanprice/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyAssistantClient = "scanprice:assistant:client:%s"

// AssistantLimiter caps how often one client may start generation tasks.
// A nil limiter allows everything.
type AssistantLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewAssistantLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*AssistantLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if limitCfg.Rate <= 0 || limitCfg.Burst <= 0 {
		return nil, errors.New("assistant rate limit must be positive")
	}

	opts, err := redis.ParseURL(strings.TrimSpace(cfg.RedisURL))
	if err != nil {
		return nil, fmt.Errorf("rate limit redis url: %w", err)
	}
	client := redis.NewClient(opts)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Named("ratelimit").Info("assistant rate limit enabled",
				zap.Float64("rate", limitCfg.Rate),
				zap.Int("burst", limitCfg.Burst),
			)
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return NewAssistantLimiterWithClient(client, limitCfg.Rate, limitCfg.Burst), nil
}

func NewAssistantLimiterWithClient(client *redis.Client, rate float64, burst int) *AssistantLimiter {
	return &AssistantLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

func (l *AssistantLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *AssistantLimiter) Allow(ctx context.Context, clientID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyAssistantClient, strings.TrimSpace(clientID)), l.rate, l.burst)
}
