package events

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource replays events from a channel. Closing the channel makes Read
// fail with io.EOF.
type fakeSource struct {
	in          chan Event
	interrupted chan struct{}
	once        sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		in:          make(chan Event, 64),
		interrupted: make(chan struct{}),
	}
}

func (s *fakeSource) Read() (Event, error) {
	select {
	case ev, ok := <-s.in:
		if !ok {
			return Event{}, io.EOF
		}
		return ev, nil
	case <-s.interrupted:
		return Event{}, ErrInterrupted
	}
}

func (s *fakeSource) Interrupt() {
	s.once.Do(func() { close(s.interrupted) })
}

func (s *fakeSource) wasInterrupted() bool {
	select {
	case <-s.interrupted:
		return true
	default:
		return false
	}
}

func next(t *testing.T, m *Multiplexer) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := m.Next(ctx)
	require.NoError(t, err)
	return ev
}

func TestStartValidatesArguments(t *testing.T) {
	_, err := Start(context.Background(), nil, time.Second)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = Start(context.Background(), newFakeSource(), 0)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}

func TestInputEventsArriveInPressOrder(t *testing.T) {
	src := newFakeSource()
	m, err := Start(context.Background(), src, time.Hour)
	require.NoError(t, err)
	defer m.Close()

	for _, r := range "abq" {
		src.in <- Input(Rune(r))
	}

	for _, want := range "abq" {
		ev := next(t, m)
		assert.Equal(t, KindInput, ev.Kind)
		assert.Equal(t, want, ev.Key.Rune)
	}
}

func TestTicksAreNotSkippedWhileConsumerStalls(t *testing.T) {
	const interval = 2 * time.Millisecond

	m, err := Start(context.Background(), newFakeSource(), interval, WithCapacity(4))
	require.NoError(t, err)
	defer m.Close()

	// Stall for far more intervals than the channel can hold.
	time.Sleep(40 * interval)

	for want := uint64(1); want <= 30; want++ {
		ev := next(t, m)
		require.Equal(t, KindTick, ev.Kind)
		require.Equal(t, want, ev.Seq, "tick sequence must be contiguous")
	}
}

func TestTicksAreMonotonic(t *testing.T) {
	m, err := Start(context.Background(), newFakeSource(), time.Millisecond)
	require.NoError(t, err)
	defer m.Close()

	prev := next(t, m)
	for i := 0; i < 10; i++ {
		ev := next(t, m)
		assert.Equal(t, prev.Seq+1, ev.Seq)
		assert.False(t, ev.At.Before(prev.At))
		prev = ev
	}
}

func TestFullChannelBlocksProducer(t *testing.T) {
	src := newFakeSource()
	m, err := Start(context.Background(), src, time.Hour, WithCapacity(1))
	require.NoError(t, err)
	defer m.Close()

	for _, r := range "xyz" {
		src.in <- Input(Rune(r))
	}

	assert.Eventually(t, func() bool { return len(m.events) == 1 }, time.Second, time.Millisecond)
	// x is queued, y is held by the blocked producer, z is still unread.
	assert.Eventually(t, func() bool { return len(src.in) == 1 }, time.Second, time.Millisecond)

	for _, want := range "xyz" {
		assert.Equal(t, want, next(t, m).Key.Rune)
	}
}

func TestCloseStopsBothProducers(t *testing.T) {
	src := newFakeSource()
	m, err := Start(context.Background(), src, time.Millisecond, WithCapacity(1))
	require.NoError(t, err)

	// Let the tick producer block on a full channel.
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = m.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	assert.True(t, src.wasInterrupted())
	select {
	case <-m.Stopped():
	default:
		t.Fatal("producers still running after Close")
	}

	_, err = m.Next(context.Background())
	if err != nil {
		assert.ErrorIs(t, err, ErrClosed)
	}

	// Closing twice is harmless.
	require.NoError(t, m.Close())
}

func TestParentCancelStopsProducers(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())
	m, err := Start(ctx, src, time.Hour)
	require.NoError(t, err)

	cancel()

	select {
	case <-m.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("producers still running after cancel")
	}
	assert.True(t, src.wasInterrupted())
}

func TestNextHonoursContext(t *testing.T) {
	m, err := Start(context.Background(), newFakeSource(), time.Hour)
	require.NoError(t, err)
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = m.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSourceFailureIsReportedAfterQueuedEvents(t *testing.T) {
	src := newFakeSource()
	m, err := Start(context.Background(), src, time.Hour)
	require.NoError(t, err)
	defer m.Close()

	src.in <- Resize()
	src.in <- Input(Rune('a'))
	close(src.in)

	<-m.failed

	assert.Equal(t, KindResize, next(t, m).Kind)
	assert.Equal(t, 'a', next(t, m).Key.Rune)

	_, err = m.Next(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrSourceClosedCode))
	assert.ErrorIs(t, err, io.EOF)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "input", KindInput.String())
	assert.Equal(t, "tick", KindTick.String())
	assert.Equal(t, "resize", KindResize.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
