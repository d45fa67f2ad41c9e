// Package refresher runs the background re-fetch of the user list.
// Refresh requests are queued and coalesced: however many arrive between two
// ticks, a single fetch is performed on the next tick.
package refresher

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/userfront/internal/logger"
	"github.com/patric-chuzhbe/userfront/internal/user"
)

type fetcher interface {
	FetchUsers(ctx context.Context) ([]user.User, error)
}

type Refresher struct {
	queue        chan string
	store        fetcher
	tick         time.Duration
	periodic     bool
	errorChannel chan error
}

type InitOption func(*initOptions)

type initOptions struct {
	periodic bool
}

// WithPeriodic makes the refresher fetch on every tick even when nothing was enqueued.
func WithPeriodic(periodic bool) InitOption {
	return func(options *initOptions) {
		options.periodic = periodic
	}
}

func New(
	store fetcher,
	queueCapacity int,
	tick time.Duration,
	optionsProto ...InitOption,
) *Refresher {
	options := &initOptions{
		periodic: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if queueCapacity < 1 {
		queueCapacity = 1
	}

	return &Refresher{
		store:        store,
		queue:        make(chan string, queueCapacity),
		tick:         tick,
		periodic:     options.periodic,
		errorChannel: make(chan error, queueCapacity),
	}
}

// Enqueue requests a refresh. It never blocks: when the queue is full a
// refresh is already due and the request is dropped.
func (r *Refresher) Enqueue(reason string) {
	select {
	case r.queue <- reason:
	default:
		logger.Log.Debugw("refresh already queued, request dropped", "reason", reason)
	}
}

// ListenErrors passes every failed fetch to callback until the refresher stops.
// The returned channel is closed once the last callback has returned.
func (r *Refresher) ListenErrors(callback func(error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for err := range r.errorChannel {
			callback(err)
		}
	}()
	return done
}

// Run starts the worker goroutine. It stops when ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	go func() {
		defer close(r.errorChannel)

		ticker := time.NewTicker(r.tick)
		defer ticker.Stop()

		var reasons []string

		for {
			select {
			case <-ctx.Done():
				return
			case reason := <-r.queue:
				reasons = append(reasons, reason)
			case <-ticker.C:
				if len(reasons) == 0 && !r.periodic {
					continue
				}
				requests := len(reasons)
				reasons = nil
				users, err := r.store.FetchUsers(ctx)
				if err != nil {
					r.reportError(err)
					continue
				}
				logger.Log.Infow("users refreshed", "count", len(users), "requests", requests)
			}
		}
	}()
}

func (r *Refresher) reportError(err error) {
	select {
	case r.errorChannel <- err:
	default:
		logger.Log.Warnw("refresh error dropped, nobody is listening", "error", err)
	}
}
