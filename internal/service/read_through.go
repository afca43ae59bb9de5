package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/repository"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

const sharedLoadTimeout = 30 * time.Second

type ledgerQuerier interface {
	Query(ctx context.Context, action string, params url.Values) (*ledger.Response, error)
}

// readThrough serves key from the cache, or runs load once for all concurrent callers and caches
// its result with the TTL of resource. forceRefresh skips the cache read only.
func readThrough[T any](ctx context.Context, c *CacheService, group *singleflight.Group, resource, key string, forceRefresh bool, load func(context.Context) (*T, error)) (*T, bool, error) {
	if !forceRefresh {
		var cached T
		if c.Get(ctx, resource, key, &cached) {
			return &cached, true, nil
		}
	}

	// Joined callers share one load, so it runs detached from the caller that started it.
	results := group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		out, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(loadCtx, resource, key, out)
		return out, nil
	})
	select {
	case res := <-results:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*T), false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// localOrFallback runs local and, only when the database cannot be reached, fallback.
func localOrFallback[T any](ctx context.Context, metrics *MetricsService, resource string, hasLedger bool, local, fallback func(context.Context) (*T, error)) (*T, error) {
	out, err := local(ctx)
	if err == nil {
		return out, nil
	}
	if !repository.IsUnavailable(err) {
		return nil, err
	}
	if !hasLedger {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, appErrors.ErrUnavailable.Message)
	}
	metrics.RecordFallback(resource)
	out, ferr := fallback(ctx)
	if ferr != nil {
		var appErr *appErrors.Error
		if errors.As(ferr, &appErr) && appErr.Status < 500 {
			return nil, appErr
		}
		return nil, appErrors.Wrap(ferr, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, appErrors.ErrUnavailable.Message)
	}
	return out, nil
}
