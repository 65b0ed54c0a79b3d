package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reelgen/internal/queue"
)

type MockProcessor struct {
	mock.Mock
	mu   sync.Mutex
	seen []string
}

func (m *MockProcessor) Process(ctx context.Context, jobID string) error {
	m.mu.Lock()
	m.seen = append(m.seen, jobID)
	m.mu.Unlock()
	return m.Called(jobID).Error(0)
}

func (m *MockProcessor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

type MockReaper struct {
	mock.Mock
}

func (m *MockReaper) RequeueStale(ctx context.Context, limit int64) (int64, error) {
	args := m.Called(limit)
	return args.Get(0).(int64), args.Error(1)
}

func runPool(t *testing.T, q *queue.MemoryQueue, proc Processor, until func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewPool(q, proc, 2, 5*time.Millisecond, zerolog.Nop()).Run(ctx)
		close(done)
	}()
	require.Eventually(t, until, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not stop")
	}
}

func TestPoolProcessesEveryDelivery(t *testing.T) {
	q := queue.NewMemoryQueue(8)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Dispatch(context.Background(), id))
	}
	proc := new(MockProcessor)
	proc.On("Process", mock.Anything).Return(nil)

	runPool(t, q, proc, func() bool { return proc.count() == 3 })
	assert.ElementsMatch(t, []string{"a", "b", "c"}, proc.seen)
	assert.Equal(t, 0, q.Len())
}

func TestPoolRedeliversWhenProcessFails(t *testing.T) {
	q := queue.NewMemoryQueue(8)
	require.NoError(t, q.Dispatch(context.Background(), "a"))
	proc := new(MockProcessor)
	proc.On("Process", "a").Return(errors.New("db down")).Once()
	proc.On("Process", "a").Return(nil)

	runPool(t, q, proc, func() bool { return proc.count() >= 2 })
	proc.AssertNumberOfCalls(t, "Process", 2)
}

func TestRunReaper(t *testing.T) {
	called := make(chan struct{}, 1)
	reaper := new(MockReaper)
	reaper.On("RequeueStale", int64(reapBatch)).
		Run(func(mock.Arguments) {
			select {
			case called <- struct{}{}:
			default:
			}
		}).
		Return(int64(2), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunReaper(ctx, reaper, 2*time.Millisecond, zerolog.Nop())
		close(done)
	}()
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("reaper never ran")
	}
	cancel()
	<-done
}
