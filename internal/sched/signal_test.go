package sched

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_SetIsIdempotent(t *testing.T) {
	var s Signal
	assert.False(t, s.IsSet())

	s.Set()
	s.Set()
	assert.True(t, s.IsSet())
}

func TestSignal_TrySetHasExactlyOneWinner(t *testing.T) {
	var s Signal
	var winners atomic.Int32

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.TrySet() {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, winners.Load())
	assert.True(t, s.IsSet())
}

func TestSignal_TrySetAfterSetLoses(t *testing.T) {
	var s Signal
	s.Set()
	assert.False(t, s.TrySet())
}
