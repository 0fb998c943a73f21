package auth_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/fzdarsky/ccclogin/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_StartsAboveReservedIDs(t *testing.T) {
	c := auth.NewCounter(auth.FirstRequestID)

	assert.Equal(t, "2", c.Next())
	assert.Equal(t, "3", c.Next())
}

func TestCounter_SequentialIsStrictlyIncreasing(t *testing.T) {
	c := auth.NewCounter(auth.FirstRequestID)

	prev := uint64(0)
	for range 1000 {
		id, err := strconv.ParseUint(c.Next(), 10, 32)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestCounter_ConcurrentIDsAreUnique(t *testing.T) {
	const (
		workers   = 16
		perWorker = 500
	)

	c := auth.NewCounter(auth.FirstRequestID)
	results := make(chan string, workers*perWorker)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				results <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, workers*perWorker)
	for id := range results {
		assert.False(t, seen[id], "duplicate request id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.NotContains(t, seen, "0")
	assert.NotContains(t, seen, "1")
}

func TestDefaultCounter_IsShared(t *testing.T) {
	first, err := strconv.ParseUint(auth.DefaultCounter.Next(), 10, 32)
	require.NoError(t, err)
	second, err := strconv.ParseUint(auth.DefaultCounter.Next(), 10, 32)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, first, uint64(auth.FirstRequestID))
	assert.Greater(t, second, first)
}
