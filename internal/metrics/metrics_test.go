package metrics_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/logger"
	"codeberg.org/mutker/diskgauge/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCollector(t *testing.T, window int) metrics.Collector {
	t.Helper()
	logger.Discard()

	c, err := metrics.NewService(metrics.Config{Enabled: true, Window: window}, logger.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestStatsCountSuccessesAndFailures(t *testing.T) {
	c := newCollector(t, 10)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.Record(ctx, &metrics.PollSample{Timestamp: t0, Duration: 10 * time.Millisecond, Readings: 3}))
	require.NoError(t, c.Record(ctx, &metrics.PollSample{Timestamp: t0.Add(time.Second), Duration: 30 * time.Millisecond, Err: stderrors.New("refused")}))
	require.NoError(t, c.Record(ctx, &metrics.PollSample{Timestamp: t0.Add(2 * time.Second), Duration: 50 * time.Millisecond, Err: stderrors.New("refused")}))

	stats := c.Stats()
	assert.Equal(t, uint64(3), stats.Polls)
	assert.Equal(t, uint64(2), stats.Failures)
	assert.Equal(t, uint64(2), stats.ConsecutiveFailures)
	assert.Equal(t, t0, stats.LastSuccess)
	assert.Equal(t, t0.Add(2*time.Second), stats.LastFailure)
	assert.Equal(t, 50*time.Millisecond, stats.LastDuration)
	assert.Equal(t, 30*time.Millisecond, stats.AverageDuration)

	require.NoError(t, c.Record(ctx, &metrics.PollSample{Timestamp: t0.Add(3 * time.Second), Duration: 10 * time.Millisecond}))
	assert.Equal(t, uint64(0), c.Stats().ConsecutiveFailures)
}

func TestAverageUsesWindowOnly(t *testing.T) {
	c := newCollector(t, 2)
	ctx := context.Background()

	for _, d := range []time.Duration{100, 10, 20} {
		require.NoError(t, c.Record(ctx, &metrics.PollSample{Duration: d * time.Millisecond}))
	}

	stats := c.Stats()
	assert.Equal(t, uint64(3), stats.Polls)
	assert.Equal(t, 15*time.Millisecond, stats.AverageDuration)
	assert.Equal(t, 20*time.Millisecond, stats.LastDuration)
}

func TestRecordRejectsNilAndCancelled(t *testing.T) {
	c := newCollector(t, 5)

	err := c.Record(context.Background(), nil)
	assert.True(t, errors.HasCode(err, metrics.ErrInvalidSample))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Record(ctx, &metrics.PollSample{})
	assert.True(t, errors.HasCode(err, metrics.ErrOperationTimeout))
}

func TestRecordAfterClose(t *testing.T) {
	c := newCollector(t, 5)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Record(context.Background(), &metrics.PollSample{})
	assert.True(t, errors.HasCode(err, metrics.ErrClosed))
}

func TestDisabledReturnsNoop(t *testing.T) {
	logger.Discard()
	c, err := metrics.NewService(metrics.Config{Enabled: false}, logger.Default())
	require.NoError(t, err)

	require.NoError(t, c.Record(context.Background(), &metrics.PollSample{Err: stderrors.New("x")}))
	assert.Equal(t, metrics.Stats{}, c.Stats())
}

func TestInvalidWindow(t *testing.T) {
	_, err := metrics.NewService(metrics.Config{Enabled: true, Window: 0}, logger.Default())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, metrics.ErrInvalidWindow))
	assert.True(t, errors.HasCode(err, metrics.ErrInvalidConfig))
}
