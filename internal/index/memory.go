package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
)

// SnapshotIndex keeps the latest sweep of each environment in memory.
// It is the primary source for /api/monitoring/latest; Redis only backs it
// up across restarts.
type SnapshotIndex struct {
	mu         sync.RWMutex
	latest     map[domain.Environment]domain.Snapshot
	lastUpdate time.Time
}

// NewSnapshotIndex creates an empty index.
func NewSnapshotIndex() *SnapshotIndex {
	return &SnapshotIndex{
		latest: make(map[domain.Environment]domain.Snapshot),
	}
}

// Put records snap as the latest sweep of its environment unless a newer
// one, or snap itself, is already stored.
func (idx *SnapshotIndex) Put(snap domain.Snapshot) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if cur, ok := idx.latest[snap.Environment]; ok {
		if (snap.ID != "" && cur.ID == snap.ID) || cur.FinishedAt.After(snap.FinishedAt) {
			return false
		}
	}
	idx.latest[snap.Environment] = snap
	idx.lastUpdate = time.Now()
	return true
}

// Latest returns the most recent sweep of env.
func (idx *SnapshotIndex) Latest(env domain.Environment) (domain.Snapshot, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap, ok := idx.latest[env]
	return snap, ok
}

// All returns the latest sweep of every environment that has one.
func (idx *SnapshotIndex) All() []domain.Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.Snapshot, 0, len(idx.latest))
	for _, env := range domain.Environments() {
		if snap, ok := idx.latest[env]; ok {
			out = append(out, snap)
		}
	}
	return out
}

// Count returns the number of environments with a stored sweep.
func (idx *SnapshotIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.latest)
}

// GetLastUpdate returns when the index was last written.
func (idx *SnapshotIndex) GetLastUpdate() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastUpdate
}
