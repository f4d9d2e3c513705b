// Package bus routes market-data and pipeline events between the data
// sources and the stages consuming them. Sources post events, the
// router dispatches them on a single goroutine, so handlers never need
// their own locking.
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

type event struct {
	id   EventID
	data interface{}
}

type Router struct {
	logger *zap.Logger

	// Channels
	done   chan error
	events chan event

	// Handlers
	QuoteHandler    QuoteEventHandler
	BarHandler      BarEventHandler
	ForecastHandler ForecastEventHandler
	SignalHandler   SignalEventHandler

	// Statistics
	runTime       time.Duration
	postCount     uint64
	postFails     uint64
	dispatchCount uint64
	dispatchFails uint64
}

func NewRouter(logger *zap.Logger, eventCapacity int) *Router {
	return &Router{
		logger: logger,
		done:   make(chan error),
		events: make(chan event, eventCapacity),
	}
}

// Post queues an event without blocking. It fails when the event
// channel is full, leaving the caller to decide whether to drop or
// back off.
func (r *Router) Post(id EventID, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount++
		return nil
	default:
		r.postFails++
		return errors.New("event capacity reached")
	}
}

// Exec dispatches queued events until the context is cancelled. The
// cancellation cause is delivered on Done.
func (r *Router) Exec(ctx context.Context) {
	r.resetStatistics()

	start := time.Now()
	defer func() {
		r.runTime += time.Since(start)
	}()

	for {
		select {
		case <-ctx.Done():
			r.done <- ctx.Err()
			return
		case ev := <-r.events:
			r.dispatchCount++
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails++
				r.logger.Warn("dispatch failed",
					zap.Error(err),
					zap.String("event", ev.id.String()))
			}
		}
	}
}

// ExecLoop interleaves dispatching with a feed callback, which lets a
// replay source drive the loop: whenever the queue is drained the
// callback produces the next event. A callback error ends the loop and
// is delivered on Done.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) {
	r.resetStatistics()

	start := time.Now()
	defer func() {
		r.runTime += time.Since(start)
	}()

	for {
		select {
		case <-ctx.Done():
			r.done <- ctx.Err()
			return
		case ev := <-r.events:
			r.dispatchCount++
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails++
				r.logger.Warn("dispatch failed",
					zap.Error(err),
					zap.String("event", ev.id.String()))
			}
		default:
			if err := doOnceCb(); err != nil {
				r.drain(ctx)
				r.done <- err
				return
			}
		}
	}
}

func (r *Router) Done() <-chan error {
	return r.done
}

// drain dispatches whatever is still queued after the feed ended, so
// events posted by the final callback are not lost.
func (r *Router) drain(ctx context.Context) {
	for {
		select {
		case ev := <-r.events:
			r.dispatchCount++
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails++
				r.logger.Warn("dispatch failed",
					zap.Error(err),
					zap.String("event", ev.id.String()))
			}
		default:
			return
		}
	}
}

func (r *Router) resetStatistics() {
	r.runTime = 0
	r.postCount = 0
	r.postFails = 0
	r.dispatchCount = 0
	r.dispatchFails = 0
}

func (r *Router) Statistics() Statistics {
	throughput := 0.0
	if r.runTime > 0 {
		throughput = float64(r.postCount) / r.runTime.Seconds()
	}
	return Statistics{
		RunTime:       r.runTime,
		PostCount:     r.postCount,
		PostFails:     r.postFails,
		DispatchCount: r.dispatchCount,
		DispatchFails: r.dispatchFails,
		Throughput:    throughput,
	}
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case QuoteEvent:
		quote, ok := ev.data.(timeseries.Quote)
		if !ok {
			return errors.New("invalid type assertion for quote event")
		}
		if r.QuoteHandler != nil {
			r.QuoteHandler(ctx, quote)
		} else {
			r.logger.Debug("quote handler is nil")
		}
	case BarEvent:
		bar, ok := ev.data.(timeseries.Bar)
		if !ok {
			return errors.New("invalid type assertion for bar event")
		}
		if r.BarHandler != nil {
			r.BarHandler(ctx, bar)
		} else {
			r.logger.Debug("bar handler is nil")
		}
	case ForecastEvent:
		update, ok := ev.data.(ForecastUpdate)
		if !ok {
			return errors.New("invalid type assertion for forecast event")
		}
		if r.ForecastHandler != nil {
			r.ForecastHandler(ctx, update)
		} else {
			r.logger.Debug("forecast handler is nil")
		}
	case SignalEvent:
		sig, ok := ev.data.(Signal)
		if !ok {
			return errors.New("invalid type assertion for signal event")
		}
		if r.SignalHandler != nil {
			r.SignalHandler(ctx, sig)
		} else {
			r.logger.Debug("signal handler is nil")
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
