package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStoreRecentUnseenChat(t *testing.T) {
	s := NewHistoryStore()
	assert.Empty(t, s.Recent(42, 8))
}

func TestHistoryStoreAppendAndRecent(t *testing.T) {
	s := NewHistoryStore()
	s.Append(42, 16, "U:hello", "A:hi")
	s.Append(42, 16, "U:how are you", "A:fine")

	assert.Equal(t, []string{"U:hello", "A:hi", "U:how are you", "A:fine"}, s.Recent(42, 8))
	assert.Equal(t, []string{"U:how are you", "A:fine"}, s.Recent(42, 2))
	assert.Empty(t, s.Recent(7, 8), "other chats stay untouched")
}

func TestHistoryStoreTrimsToLimit(t *testing.T) {
	s := NewHistoryStore()
	for i := 0; i < 20; i++ {
		s.Append(1, 16, fmt.Sprintf("U:q%d", i), fmt.Sprintf("A:a%d", i))
	}

	all := s.Recent(1, 100)
	require.Len(t, all, 16)
	assert.Equal(t, "U:q12", all[0], "oldest entries dropped from the front")
	assert.Equal(t, "A:a19", all[15])

	recent := s.Recent(1, 8)
	require.Len(t, recent, 8)
	assert.Equal(t, "U:q16", recent[0])
}

func TestHistoryStoreResetIdempotent(t *testing.T) {
	s := NewHistoryStore()
	s.Append(42, 16, "U:hello", "A:hi")
	s.Reset(42)
	assert.Empty(t, s.Recent(42, 8))

	// Resetting an unseen chat must not panic.
	s.Reset(99)
	s.Reset(42)
}

func TestHistoryStoreRecentReturnsCopy(t *testing.T) {
	s := NewHistoryStore()
	s.Append(1, 16, "U:a", "A:b")

	got := s.Recent(1, 8)
	got[0] = "mutated"

	assert.Equal(t, []string{"U:a", "A:b"}, s.Recent(1, 8))
}

func TestHistoryStoreConcurrentChats(t *testing.T) {
	s := NewHistoryStore()

	var wg sync.WaitGroup
	for chat := int64(0); chat < 32; chat++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Append(id, 16, "U:x", "A:y")
				s.Recent(id, 8)
			}
		}(chat)
	}
	wg.Wait()

	for chat := int64(0); chat < 32; chat++ {
		assert.Len(t, s.Recent(chat, 100), 16)
	}
}
