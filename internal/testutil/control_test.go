package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControlSequence_StartsAtZero(t *testing.T) {
	seq := NewControlSequence()
	assert.Equal(t, int64(0), seq.Current())
	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(2), seq.Next())
	assert.Equal(t, int64(2), seq.Current())
}

func TestControlSequence_Reset(t *testing.T) {
	seq := NewControlSequence()
	seq.Next()
	seq.Next()

	seq.Reset()
	assert.Equal(t, int64(0), seq.Current())
	assert.Equal(t, int64(1), seq.Next())
}

func TestControlSequence_ConcurrentNextIsUnique(t *testing.T) {
	seq := NewControlSequence()
	const workers, calls = 20, 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for range calls {
				n := seq.Next()
				mu.Lock()
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), seq.Current())
}
