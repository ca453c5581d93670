package adapters

import (
	"context"
	"discovernow/internal/config"
	"discovernow/internal/logging"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// BaseAdapter provides common functionality for platform adapters: every
// remote call is rate limited, bounded by a timeout and passes through a
// circuit breaker
type BaseAdapter struct {
	platformName string
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[any]
	timeout      time.Duration
	log          zerolog.Logger
}

// NewBaseAdapter creates a new BaseAdapter
func NewBaseAdapter(platformName string, cfg config.ResilienceConfig) BaseAdapter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := max(cfg.Burst, 1)
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	breakerTimeout := cfg.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	log := logging.WithComponent(platformName)
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        platformName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		IsSuccessful: isBreakerSuccess,
	})

	return BaseAdapter{
		platformName: platformName,
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
		breaker:      cb,
		timeout:      cfg.RequestTimeout,
		log:          log,
	}
}

// isBreakerSuccess keeps answers that are valid but empty, and cancellations
// by the caller, from tripping the breaker
func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, ErrArtistNotFound) ||
		errors.Is(err, context.Canceled)
}

// call runs fn once the limiter admits it, under the breaker and the request
// timeout
func call[T any](ctx context.Context, b *BaseAdapter, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%s %s: %w", b.platformName, op, err)
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	started := time.Now()
	res, err := b.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	logging.From(ctx, b.log).Trace().Str("op", op).Dur("took", time.Since(started)).Err(err).Msg("remote call")
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", b.platformName, op, err)
	}

	typed, ok := res.(T)
	if !ok && res != nil {
		return zero, fmt.Errorf("%s %s: unexpected result type %T", b.platformName, op, res)
	}
	return typed, nil
}
