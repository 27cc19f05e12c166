package events

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/logger"
)

// DefaultCapacity bounds the shared event channel.
const DefaultCapacity = 16

type Option func(*options)

type options struct {
	capacity int
}

// WithCapacity sets the channel capacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// Multiplexer owns the input and tick producers and the channel they share.
type Multiplexer struct {
	src      Source
	interval time.Duration

	events  chan Event
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped chan struct{}

	// failed is closed by the input producer after setting err.
	failed chan struct{}
	err    error
}

// Start launches both producers. They run until ctx is cancelled or Close
// is called.
func Start(ctx context.Context, src Source, interval time.Duration, opts ...Option) (*Multiplexer, error) {
	errFactory := errors.New()

	if src == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "event source is required")
	}
	if interval <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidInterval, interval)
	}

	o := options{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	mctx, cancel := context.WithCancel(ctx)
	m := &Multiplexer{
		src:      src,
		interval: interval,
		events:   make(chan Event, o.capacity),
		ctx:      mctx,
		cancel:   cancel,
		stopped:  make(chan struct{}),
		failed:   make(chan struct{}),
	}

	// A blocked Read only returns once the source is interrupted.
	context.AfterFunc(mctx, src.Interrupt)

	m.wg.Add(2)
	go m.readInput()
	go m.tick()

	go func() {
		m.wg.Wait()
		close(m.stopped)
	}()

	logger.Debug().
		Dur("interval", interval).
		Int("capacity", o.capacity).
		Msg("Event multiplexer started")

	return m, nil
}

// Next returns the next event in arrival order, blocking until one is
// available. Events already queued are returned even after the input source
// has failed; the failure is reported once the queue is empty.
func (m *Multiplexer) Next(ctx context.Context) (Event, error) {
	select {
	case ev := <-m.events:
		return ev, nil
	default:
	}

	select {
	case ev := <-m.events:
		return ev, nil
	case <-m.failed:
		select {
		case ev := <-m.events:
			return ev, nil
		default:
		}
		return Event{}, m.err
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-m.ctx.Done():
		return Event{}, ErrClosed
	}
}

// Close stops both producers and waits for them to exit. Safe to call more
// than once.
func (m *Multiplexer) Close() error {
	m.cancel()
	<-m.stopped
	return nil
}

// Stopped is closed once both producers have exited.
func (m *Multiplexer) Stopped() <-chan struct{} {
	return m.stopped
}

func (m *Multiplexer) readInput() {
	defer m.wg.Done()

	for {
		ev, err := m.src.Read()
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrInterrupted) {
				continue
			}
			m.err = errors.New().Wrap(ErrSourceClosedCode, err)
			close(m.failed)
			logger.Debug().Err(err).Msg("Input producer stopped")
			return
		}

		if !m.send(ev) || m.ctx.Err() != nil {
			return
		}
	}
}

// tick emits a Tick every interval. The timer is re-armed before the send,
// so the interval is measured from emission start and a blocked send never
// causes a tick to be skipped.
func (m *Multiplexer) tick() {
	defer m.wg.Done()

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	var seq uint64
	for {
		select {
		case <-m.ctx.Done():
			return
		case at := <-timer.C:
			seq++
			timer.Reset(m.interval)
			if !m.send(Event{Kind: KindTick, Seq: seq, At: at}) {
				return
			}
		}
	}
}

// send blocks while the channel is full.
func (m *Multiplexer) send(ev Event) bool {
	select {
	case m.events <- ev:
		return true
	case <-m.ctx.Done():
		return false
	}
}
