package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/internal/repository"
	"github.com/jafarshop/marketsync/internal/spapi"
)

// ErrMaxRetriesExceeded aborts a sync run after the retry wrapper exhausted
// its attempts and disabled further scheduled syncs.
var ErrMaxRetriesExceeded = errors.New("scheduled sync has been temporarily disabled because maximum retries have been exceeded")

// ErrSyncDisabled is returned when a run is requested while the settings'
// enable-sync flag is off.
var ErrSyncDisabled = errors.New("order synchronization is disabled")

const retryBackoff = time.Second

// apiCaller wraps seller API calls with bounded retry and the setting-level
// circuit breaker: when one call exhausts its retries, the enable-sync flag
// is persisted off and the whole run aborts.
type apiCaller struct {
	settings *domain.SyncSettings
	repos    *repository.Repositories
	logger   *zap.Logger
	sleep    func(time.Duration)
}

func newAPICaller(settings *domain.SyncSettings, repos *repository.Repositories, logger *zap.Logger) *apiCaller {
	return &apiCaller{
		settings: settings,
		repos:    repos,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// callWithRetry invokes fn up to the configured retry limit. Typed seller API
// errors are aggregated by code (a code repeating across attempts is recorded
// once) with a fixed backoff between attempts. Any other error is not the
// wrapper's to handle and propagates immediately, untouched.
func callWithRetry[T any](ctx context.Context, c *apiCaller, method string, fn func(ctx context.Context) (*T, error)) (*T, error) {
	failures := map[string]string{}

	for attempt := 0; attempt < c.settings.MaxRetryLimit; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		var apiErr *spapi.APIError
		if !errors.As(err, &apiErr) {
			return nil, err
		}

		if _, seen := failures[apiErr.Code]; !seen {
			failures[apiErr.Code] = apiErr.Description
		}

		c.sleep(retryBackoff)
	}

	for code, description := range failures {
		c.logger.Error("seller API call failed",
			zap.String("method", method),
			zap.String("error", code),
			zap.String("error_description", description),
		)
	}

	c.settings.EnableSync = false
	if err := c.repos.Settings.SetEnableSync(ctx, c.settings.Name, false); err != nil {
		c.logger.Error("Failed to persist disabled sync flag", zap.Error(err))
	}

	return nil, fmt.Errorf("method %q: %w", method, ErrMaxRetriesExceeded)
}

// forEachPage drives a paginated listing to completion: the first call runs
// without a continuation token, each following call with the token returned
// by the previous page, until a page carries no token or process signals a
// stop. A page with an empty item list but a present token does not
// terminate the loop.
func forEachPage[T any](
	ctx context.Context,
	fetch func(ctx context.Context, nextToken string) (page *T, next string, err error),
	process func(page *T) (stop bool, err error),
) error {
	token := ""

	for {
		page, next, err := fetch(ctx, token)
		if err != nil {
			return err
		}

		stop, err := process(page)
		if err != nil {
			return err
		}
		if stop || next == "" {
			return nil
		}

		token = next
	}
}
