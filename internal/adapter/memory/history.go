package memory

import "sync"

// shardCount spreads chats and users over independent locks so concurrent
// webhook deliveries for different chats never contend.
const shardCount = 16

// HistoryStore is the process-wide conversation window. Nothing is persisted;
// history is best-effort and lost on restart.
type HistoryStore struct {
	shards [shardCount]historyShard
}

type historyShard struct {
	mu    sync.Mutex
	chats map[int64][]string
}

func NewHistoryStore() *HistoryStore {
	s := &HistoryStore{}
	for i := range s.shards {
		s.shards[i].chats = make(map[int64][]string)
	}
	return s
}

func (s *HistoryStore) shard(chatID int64) *historyShard {
	return &s.shards[uint64(chatID)%shardCount]
}

func (s *HistoryStore) Recent(chatID int64, n int) []string {
	if n <= 0 {
		return nil
	}

	sh := s.shard(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	history := sh.chats[chatID]
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return append([]string(nil), history...)
}

func (s *HistoryStore) Append(chatID int64, limit int, entries ...string) {
	if len(entries) == 0 {
		return
	}

	sh := s.shard(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	history := append(sh.chats[chatID], entries...)
	if limit > 0 && len(history) > limit {
		history = append([]string(nil), history[len(history)-limit:]...)
	}
	sh.chats[chatID] = history
}

func (s *HistoryStore) Reset(chatID int64) {
	sh := s.shard(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.chats, chatID)
}
