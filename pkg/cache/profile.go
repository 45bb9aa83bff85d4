package cache

import (
	"context"

	"virtual-economy/pkg/rediskey"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var Module = fx.Module("cache",
	fx.Provide(NewProfileInvalidator),
)

// ProfileInvalidator drops cached profile data after a balance change.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string) error
}

type Params struct {
	fx.In
	Redis *redis.Client `optional:"true"`
}

func NewProfileInvalidator(p Params) ProfileInvalidator {
	if p.Redis == nil {
		return Nop{}
	}
	return &redisInvalidator{rdb: p.Redis}
}

type redisInvalidator struct {
	rdb redis.Cmdable
}

func NewRedisInvalidator(rdb redis.Cmdable) ProfileInvalidator {
	return &redisInvalidator{rdb: rdb}
}

func (r *redisInvalidator) Invalidate(ctx context.Context, userIDs ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		keys := rediskey.UserKeys(id)
		g.Go(func() error {
			return r.rdb.Del(ctx, keys...).Err()
		})
	}
	return g.Wait()
}

type Nop struct{}

func (Nop) Invalidate(context.Context, ...string) error { return nil }

// InvalidateQuietly runs Invalidate after a commit; failures are logged only.
func InvalidateQuietly(ctx context.Context, inv ProfileInvalidator, userIDs ...string) {
	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx, userIDs...); err != nil {
		zap.L().Warn("failed to invalidate profile cache", zap.Strings("user_ids", userIDs), zap.Error(err))
	}
}
