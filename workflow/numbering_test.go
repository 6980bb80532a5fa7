// workflow/numbering_test.go
package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "VF26000001", FormatNumber(2026, 1))
	assert.Equal(t, "VF26000123", FormatNumber(2026, 123))
	assert.Equal(t, "VF09999999", FormatNumber(2009, 999999))
	// A sequence past six digits widens the number instead of wrapping.
	assert.Equal(t, "VF261000000", FormatNumber(2026, 1000000))
}

func TestIsApplicationNumber(t *testing.T) {
	assert.True(t, IsApplicationNumber("VF26000042"))
	assert.False(t, IsApplicationNumber("vf26000042"))
	assert.False(t, IsApplicationNumber("VF2600042"))
	assert.False(t, IsApplicationNumber("XX26000042"))
	assert.False(t, IsApplicationNumber(""))
}

// memorySequencer mimics the counter collection: one atomic counter
// per year.
type memorySequencer struct {
	mu       sync.Mutex
	counters map[int]*int64
}

func newMemorySequencer() *memorySequencer {
	return &memorySequencer{counters: make(map[int]*int64)}
}

func (s *memorySequencer) Next(_ context.Context, year int) (int64, error) {
	s.mu.Lock()
	counter, ok := s.counters[year]
	if !ok {
		counter = new(int64)
		s.counters[year] = counter
	}
	s.mu.Unlock()
	return atomic.AddInt64(counter, 1), nil
}

func TestConcurrentSequencingYieldsDistinctNumbers(t *testing.T) {
	const workers = 100
	seq := newMemorySequencer()

	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(context.Background(), 2026)
			require.NoError(t, err)
			numbers <- FormatNumber(2026, n)
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, workers)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate number %s", n)
		assert.True(t, IsApplicationNumber(n))
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

func TestSequencerIsolatesYears(t *testing.T) {
	seq := newMemorySequencer()
	ctx := context.Background()

	n1, err := seq.Next(ctx, 2026)
	require.NoError(t, err)
	n2, err := seq.Next(ctx, 2027)
	require.NoError(t, err)

	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(1), n2)
	assert.NotEqual(t, FormatNumber(2026, n1), FormatNumber(2027, n2))
}
