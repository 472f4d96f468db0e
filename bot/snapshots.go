package bot

import (
	"sync"

	"invscan/pkg/inventory"
)

// Snapshots keeps the inventory of each chat in memory. Screenshots of the inventory
// and of the storage shed add up, so each new scan is merged over the previous one.
type Snapshots struct {
	mu    sync.RWMutex
	chats map[int64]inventory.Snapshot
}

func NewSnapshots() *Snapshots {
	return &Snapshots{chats: make(map[int64]inventory.Snapshot)}
}

// Get returns a copy of the chat's snapshot.
func (s *Snapshots) Get(chatID int64) (inventory.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.chats[chatID]
	if !ok {
		return nil, false
	}
	return snap.Clone(), true
}

// Merge folds snap over the chat's snapshot and returns the result.
func (s *Snapshots) Merge(chatID int64, snap inventory.Snapshot) inventory.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := inventory.Merge(s.chats[chatID], snap)
	s.chats[chatID] = merged
	return merged.Clone()
}

// Reset forgets the chat's snapshot.
func (s *Snapshots) Reset(chatID int64) {
	s.mu.Lock()
	delete(s.chats, chatID)
	s.mu.Unlock()
}
