package digest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/houzhh15/meetbot/cmd/server/internal/services"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunDigest(context.Context) (services.DigestReport, error) {
	r.calls.Add(1)
	return services.DigestReport{Groups: 1, Delivered: 1}, r.err
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler("every morning", &countingRunner{}, nil)
	assert.ErrorContains(t, err, "invalid digest schedule")
}

func TestSchedulerNext(t *testing.T) {
	s, err := NewScheduler("0 8 * * *", &countingRunner{}, nil)
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())

	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 8, next.In(time.Local).Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestSchedulerFires(t *testing.T) {
	runner := &countingRunner{}
	s, err := NewScheduler("@every 1s", runner, nil)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop(context.Background())
}

func TestRunLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	runner := &countingRunner{err: errors.New("store down")}

	s, err := NewScheduler("0 8 * * *", runner, log)
	require.NoError(t, err)

	s.Run()
	s.Run()
	assert.EqualValues(t, 2, runner.calls.Load())
	assert.Contains(t, buf.String(), "digest run failed")
	assert.Contains(t, buf.String(), "store down")
}
