package admission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestController(t *testing.T) (*Controller, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.Now = clock.Now
	return NewController(cfg, nil, nil), clock
}

const sender = "56911112222"

func TestAdmitDuplicateMessageID(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	first, err := c.Admit(ctx, "msg-1", sender, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, Decision{Admitted: true, Reason: ReasonFirstMessage}, first)

	clock.Advance(10 * time.Second)
	second, err := c.Admit(ctx, "msg-1", sender, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, Decision{Reason: ReasonDuplicate}, second)
}

func TestAdmitStaleMessage(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	d, err := c.Admit(ctx, "old", sender, clock.Now().Add(-61*time.Second))
	require.NoError(t, err)
	assert.Equal(t, Decision{Reason: ReasonStale}, d)

	_, ok := c.Conversation(sender)
	assert.False(t, ok, "stale messages must not create conversations")

	again, err := c.Admit(ctx, "old", sender, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, ReasonDuplicate, again.Reason, "stale ids are recorded as processed")
}

func TestAdmitGroupsBurst(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	const n = 5
	admitted := 0
	for i := 0; i < n; i++ {
		d, err := c.Admit(ctx, fmt.Sprintf("burst-%d", i), sender, clock.Now())
		require.NoError(t, err)
		if d.Admitted {
			admitted++
			assert.Equal(t, 0, i, "only the first message of a burst is admitted")
		} else {
			assert.Equal(t, ReasonGrouped, d.Reason)
		}
		clock.Advance(200 * time.Millisecond)
	}
	assert.Equal(t, 1, admitted)

	conv, ok := c.Conversation(sender)
	require.True(t, ok)
	assert.Equal(t, StatusActive, conv.Status)
	assert.Len(t, conv.MessageIDs, n)
}

func TestAdmitActiveAfterGroupWindow(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	_, err := c.Admit(ctx, "a", sender, clock.Now())
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	d, err := c.Admit(ctx, "b", sender, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, Decision{Admitted: true, Reason: ReasonNewTurn}, d)

	conv, _ := c.Conversation(sender)
	assert.Equal(t, clock.Now(), conv.LastActivity)
}

func TestAdmitAfterClose(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	_, err := c.Admit(ctx, "turn-1", sender, clock.Now())
	require.NoError(t, err)
	clock.Advance(500 * time.Millisecond)
	_, err = c.Admit(ctx, "turn-1b", sender, clock.Now())
	require.NoError(t, err)

	c.Close(sender)
	conv, _ := c.Conversation(sender)
	assert.Equal(t, StatusClosed, conv.Status)

	clock.Advance(2 * time.Second)
	inGrace, err := c.Admit(ctx, "tail", sender, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, Decision{Reason: ReasonClosing}, inGrace)

	clock.Advance(4 * time.Second)
	reopened, err := c.Admit(ctx, "turn-2", sender, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, Decision{Admitted: true, Reason: ReasonReopened}, reopened)

	conv, _ = c.Conversation(sender)
	assert.Equal(t, StatusActive, conv.Status)
	assert.Equal(t, []string{"turn-2"}, conv.MessageIDs)
}

func TestSendersAreIndependent(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	a, err := c.Admit(ctx, "a-1", "111", clock.Now())
	require.NoError(t, err)
	b, err := c.Admit(ctx, "b-1", "222", clock.Now())
	require.NoError(t, err)
	assert.True(t, a.Admitted)
	assert.True(t, b.Admitted)

	c.Close("111")
	conv, _ := c.Conversation("222")
	assert.Equal(t, StatusActive, conv.Status)
}

func TestSweepEvictsIdleConversations(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	_, err := c.Admit(ctx, "old-sender", "111", clock.Now())
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	_, err = c.Admit(ctx, "fresh-sender", "222", clock.Now())
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, c.Sweep(ctx))

	_, ok := c.Conversation("111")
	assert.False(t, ok)
	_, ok = c.Conversation("222")
	assert.True(t, ok)
}

func TestProcessedIDsClearAfterLimit(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	for i := 0; i <= DefaultMaxProcessedIDs; i++ {
		_, err := c.Admit(ctx, fmt.Sprintf("id-%d", i), fmt.Sprintf("sender-%d", i), clock.Now())
		require.NoError(t, err)
	}
	size, err := c.ProcessedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxProcessedIDs+1, size)

	_, err = c.Admit(ctx, "next", "sender-next", clock.Now())
	require.NoError(t, err)
	size, err = c.ProcessedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size, "cache is cleared wholesale, not trimmed")
}

func TestConcurrentDeliveriesAdmitOnce(t *testing.T) {
	c, clock := newTestController(t)
	ctx := context.Background()

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := c.Admit(ctx, "same-id", sender, clock.Now())
			if err == nil && d.Admitted {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}

// failingMarks fails the first n Mark calls.
type failingMarks struct {
	*MemoryProcessedIDs
	failures int
}

func (f *failingMarks) Mark(ctx context.Context, id string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("redis: connection reset")
	}
	return f.MemoryProcessedIDs.Mark(ctx, id)
}

func TestAdmitFailedMarkLeavesStateUntouched(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.Now = clock.Now
	c := NewController(cfg, &failingMarks{MemoryProcessedIDs: NewMemoryProcessedIDs(0), failures: 1}, nil)
	ctx := context.Background()

	_, err := c.Admit(ctx, "m1", sender, clock.Now())
	require.Error(t, err)
	_, ok := c.Conversation(sender)
	assert.False(t, ok, "failed admission must not create a conversation")

	clock.Advance(200 * time.Millisecond)
	d, err := c.Admit(ctx, "m1", sender, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, Decision{Admitted: true, Reason: ReasonFirstMessage}, d)
}
