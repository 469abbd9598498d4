package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "payroll:report:"

// GenerationKey holds the counter that versions every cached report of a company.
func GenerationKey(companyID string) string {
	return cacheKeyPrefix + companyID + ":gen"
}

// DataKey addresses one cached report under a given generation.
func DataKey(companyID, generation, name, args string) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", cacheKeyPrefix, companyID, generation, name, args)
}

// InvalidateCompany bumps the company generation so every cached report of
// the company becomes unreachable. Old entries expire through their TTL.
func (s *ReportServiceImpl) InvalidateCompany(ctx context.Context, companyID string) error {
	if s.rdb == nil {
		return nil
	}
	if err := s.rdb.Incr(ctx, GenerationKey(companyID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate report cache: %w", err)
	}
	return nil
}

func (s *ReportServiceImpl) generation(ctx context.Context, companyID string) (string, error) {
	gen, err := s.rdb.Get(ctx, GenerationKey(companyID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// cached serves a report from redis, loading and storing it on a miss.
// Concurrent misses for the same key share one load. Cache failures fall
// back to the repository.
func cached[T any](ctx context.Context, s *ReportServiceImpl, companyID, name, args string, load func(ctx context.Context) (T, error)) (T, error) {
	if s.rdb == nil {
		return load(ctx)
	}

	gen, err := s.generation(ctx, companyID)
	if err != nil {
		slog.WarnContext(ctx, "report cache unavailable", "company_id", companyID, "error", err)
		return load(ctx)
	}
	key := DataKey(companyID, gen, name, args)

	if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var value T
		if json.Unmarshal([]byte(raw), &value) == nil {
			return value, nil
		}
	}

	// The shared load outlives any single caller, so it runs detached from
	// the caller's cancellation. Each caller still stops waiting on its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	result := s.sf.DoChan(key, func() (interface{}, error) {
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(value); err == nil {
			if err := s.rdb.Set(loadCtx, key, string(data), s.ttl).Err(); err != nil {
				slog.WarnContext(loadCtx, "failed to cache report", "key", key, "error", err)
			}
		}
		return value, nil
	})

	var zero T
	select {
	case res := <-result:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
