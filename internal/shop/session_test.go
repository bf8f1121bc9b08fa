package shop

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetCreatesInMenuState(t *testing.T) {
	store := NewStore()

	sess := store.Get(1)

	require.NotNil(t, sess)
	assert.Equal(t, StateMenu, sess.State)
	assert.Equal(t, 1, store.Len())

	// Same chat yields the same session.
	sess.State = StateCart
	assert.Same(t, sess, store.Get(1))
}

func TestStore_StateOfDoesNotCreate(t *testing.T) {
	store := NewStore()

	_, ok := store.StateOf(1)

	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestStore_DropRemovesSession(t *testing.T) {
	store := NewStore()
	store.Get(1)
	store.Get(2)

	store.Drop(1)

	assert.Equal(t, 1, store.Len())
	_, ok := store.StateOf(1)
	assert.False(t, ok)
}

func TestStore_SetLastPromptIgnoresUnknownChat(t *testing.T) {
	store := NewStore()

	store.SetLastPrompt(1, 99)

	assert.Zero(t, store.Len())

	store.Get(1)
	store.SetLastPrompt(1, 99)
	assert.Equal(t, 99, store.Get(1).LastPromptID)
}

func TestStore_AcquireSerializesPerChat(t *testing.T) {
	store := NewStore()
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			release := store.Acquire(1)
			defer release()
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, order, 8)
}
