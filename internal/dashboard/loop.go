// Package dashboard holds the application state and the single-threaded
// render/update loop that drives it.
package dashboard

import (
	"context"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/events"
	"codeberg.org/mutker/diskgauge/internal/logger"
	"codeberg.org/mutker/diskgauge/internal/metrics"
	"codeberg.org/mutker/diskgauge/internal/usage"
)

// DefaultPollTimeout bounds a single Fetch.
const DefaultPollTimeout = 10 * time.Second

// Gateway fetches the current readings.
type Gateway interface {
	Fetch(ctx context.Context) (usage.Snapshot, error)
}

// EventSource is the consumer side of the event multiplexer.
type EventSource interface {
	Next(ctx context.Context) (events.Event, error)
	Close() error
}

// Sink receives every fresh snapshot.
type Sink interface {
	Publish(ctx context.Context, snap usage.Snapshot, at time.Time) error
}

// Phase is the loop lifecycle.
type Phase int

const (
	Running Phase = iota
	Terminated
)

type Option func(*Loop)

// WithPollTimeout sets the deadline for each poll. Zero disables it.
func WithPollTimeout(d time.Duration) Option {
	return func(l *Loop) {
		if d >= 0 {
			l.pollTimeout = d
		}
	}
}

func WithCollector(c metrics.Collector) Option {
	return func(l *Loop) {
		if c != nil {
			l.collector = c
		}
	}
}

func WithSinks(sinks ...Sink) Option {
	return func(l *Loop) {
		for _, s := range sinks {
			if s != nil {
				l.sinks = append(l.sinks, s)
			}
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// Loop alternates between drawing the state and handling one event.
// Everything it owns is touched only from the goroutine running Run.
type Loop struct {
	gateway  Gateway
	source   EventSource
	renderer Renderer

	collector   metrics.Collector
	sinks       []Sink
	pollTimeout time.Duration
	now         func() time.Time

	state State
	phase Phase
}

func New(gw Gateway, src EventSource, r Renderer, opts ...Option) (*Loop, error) {
	errFactory := errors.New()

	switch {
	case gw == nil:
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "gateway is required")
	case src == nil:
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "event source is required")
	case r == nil:
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "renderer is required")
	}

	l := &Loop{
		gateway:     gw,
		source:      src,
		renderer:    r,
		collector:   metrics.Noop(),
		pollTimeout: DefaultPollTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Run renders, waits for an event, handles it and repeats until the quit
// key is pressed or ctx is cancelled. The event source is closed on return,
// which stops its producers.
//
// Poll failures are never fatal; render and input failures are.
func (l *Loop) Run(ctx context.Context) error {
	errFactory := errors.New()

	defer func() {
		l.phase = Terminated
		if err := l.source.Close(); err != nil {
			logger.Debug().Err(err).Msg("Failed to close event source")
		}
	}()

	for {
		if err := l.renderer.Render(l.view()); err != nil {
			return errFactory.Wrap(errors.ErrRender, err)
		}

		ev, err := l.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, events.ErrClosed) {
				logger.Debug().Err(err).Msg("Event stream ended")
				return nil
			}
			return errFactory.Wrap(errors.ErrMainLoop, err)
		}

		switch ev.Kind {
		case events.KindInput:
			if IsQuit(ev.Key) {
				logger.Debug().Msg("Quit requested")
				return nil
			}
		case events.KindTick:
			l.poll(ctx, ev)
		case events.KindResize:
			// picked up by the next render
		}
	}
}

// State returns the loop's state. Only safe to read once Run has returned
// or from the goroutine running it.
func (l *Loop) State() *State {
	return &l.state
}

func (l *Loop) Phase() Phase {
	return l.phase
}

// IsQuit reports whether k ends the dashboard.
func IsQuit(k events.Key) bool {
	return k.Code == events.KeyCtrlC || (k.Code == events.KeyRune && k.Rune == 'q')
}

func (l *Loop) poll(ctx context.Context, ev events.Event) {
	start := l.now()

	pctx, cancel := ctx, context.CancelFunc(func() {})
	if l.pollTimeout > 0 {
		pctx, cancel = context.WithTimeout(ctx, l.pollTimeout)
	}
	snap, err := l.gateway.Fetch(pctx)
	cancel()

	sample := &metrics.PollSample{
		Timestamp: start,
		Duration:  l.now().Sub(start),
		Readings:  snap.Len(),
		Err:       err,
	}
	if rerr := l.collector.Record(ctx, sample); rerr != nil {
		logger.Debug().Err(rerr).Msg("Failed to record poll")
	}

	if err != nil {
		l.state.Fail(err, start)

		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.WarnWithCode(appErr).Uint64("tick", ev.Seq).Msg("Poll failed, keeping previous readings")
		} else {
			logger.Warn().Err(err).Uint64("tick", ev.Seq).Msg("Poll failed, keeping previous readings")
		}
		return
	}

	l.state.Replace(snap, start)

	logger.Debug().
		Uint64("tick", ev.Seq).
		Int("readings", snap.Len()).
		Dur("duration", sample.Duration).
		Msg("Poll succeeded")

	for _, s := range l.sinks {
		if err := s.Publish(ctx, l.state.Snapshot(), start); err != nil {
			logger.Warn().Err(err).Msg("Failed to forward snapshot")
		}
	}
}

func (l *Loop) view() View {
	return View{
		Readings:  l.state.Snapshot(),
		UpdatedAt: l.state.UpdatedAt(),
		LastError: l.state.LastError(),
		FailedAt:  l.state.FailedAt(),
		Stats:     l.collector.Stats(),
		Now:       l.now(),
	}
}
