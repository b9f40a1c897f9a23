package bridge

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCell_EmptyUntilSet(t *testing.T) {
	cell := NewHandleCell()

	assert.False(t, cell.Ready())
	_, ok := cell.Get()
	assert.False(t, ok)

	select {
	case <-cell.Done():
		t.Fatal("done channel closed before Set")
	default:
	}
}

func TestHandleCell_FirstSetWins(t *testing.T) {
	cell := NewHandleCell()
	first := &testTransport{}
	second := &testTransport{}

	assert.True(t, cell.Set(first))
	assert.False(t, cell.Set(second))

	got, ok := cell.Get()
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.True(t, cell.Ready())

	select {
	case <-cell.Done():
	default:
		t.Fatal("done channel not closed after Set")
	}
}

func TestHandleCell_NilNeverSets(t *testing.T) {
	cell := NewHandleCell()
	assert.False(t, cell.Set(nil))
	assert.False(t, cell.Ready())
}

func TestHandleCell_ConcurrentSetHasOneWinner(t *testing.T) {
	cell := NewHandleCell()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cell.Set(&testTransport{}) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, cell.Ready())
}
