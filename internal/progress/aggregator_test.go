//nolint:testpackage // White-box tests require access to unexported identifiers in this package.
package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualClock advances only when told to, making the rate limit
// deterministic.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestAggregator_RateLimitsBurstsToOneWrite(t *testing.T) {
	var buf bytes.Buffer
	clock := newManualClock()
	a := newAggregator(&buf, clock.Now)

	for i := 0; i < 100; i++ {
		a.Update("video.mp4", "10%", "1.0 MiB/s")
		clock.Advance(100 * time.Microsecond) // 100 calls inside 10ms
	}

	require.Equal(t, 1, strings.Count(buf.String(), "progress:"))
}

func TestAggregator_AcceptsUpdatesOutsideWindow(t *testing.T) {
	var buf bytes.Buffer
	clock := newManualClock()
	a := newAggregator(&buf, clock.Now)

	a.Update("video.mp4", "10%", "1.0 MiB/s")
	clock.Advance(600 * time.Millisecond)
	a.Update("video.mp4", "55%", "1.2 MiB/s")

	require.Equal(t, 2, strings.Count(buf.String(), "progress:"))
}

func TestAggregator_HeaderLineOnSourceChange(t *testing.T) {
	var buf bytes.Buffer
	clock := newManualClock()
	a := newAggregator(&buf, clock.Now)

	a.Update("first.mp4", "10%", "1.0 MiB/s")
	clock.Advance(time.Second)
	a.Update("second.mp4", "20%", "1.0 MiB/s")
	clock.Advance(time.Second)
	a.Update("second.mp4", "30%", "1.0 MiB/s")

	out := buf.String()
	// The source name appears only in header lines; progress lines carry
	// percent and speed alone. One header per source change.
	require.Equal(t, 1, strings.Count(out, "first.mp4"))
	require.Equal(t, 1, strings.Count(out, "second.mp4"))
	require.Equal(t, 3, strings.Count(out, "progress:"))
}

func TestAggregator_CompleteIsNeverRateLimited(t *testing.T) {
	var buf bytes.Buffer
	clock := newManualClock()
	a := newAggregator(&buf, clock.Now)

	a.Update("a.mp4", "99%", "1.0 MiB/s")
	a.Complete("a.mp4", true)
	a.Complete("b.mp4", false)

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, "done"))
	require.Equal(t, 1, strings.Count(out, "failed"))
}

func TestAggregator_ConcurrentCallersDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	clock := newManualClock()
	a := newAggregator(&buf, clock.Now)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				a.Update("shared.mp4", "50%", "1.0 MiB/s")
				a.Complete("shared.mp4", true)
			}
		}()
	}
	wg.Wait()

	// Every completion line is whole: the count of markers equals the count
	// of complete lines written under the lock.
	require.Equal(t, 400, strings.Count(buf.String(), "done"))
}
