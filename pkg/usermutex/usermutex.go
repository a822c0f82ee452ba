// Package usermutex provides a sharded keyed mutex. Locks taken for
// different keys almost never contend; locks for the same key always
// serialize. Used to order memory merges per user without a global lock.
package usermutex

import (
	"sync"

	"github.com/google/uuid"
)

const defaultShards = 64

// Arena is a fixed set of mutex shards addressed by UUID.
type Arena struct {
	shards []sync.Mutex
}

// New creates an Arena with the given shard count. Counts below one fall
// back to the default.
func New(shards int) *Arena {
	if shards < 1 {
		shards = defaultShards
	}
	return &Arena{shards: make([]sync.Mutex, shards)}
}

// Lock acquires the shard for the key and returns the unlock function.
//
//	unlock := arena.Lock(userID)
//	defer unlock()
func (a *Arena) Lock(key uuid.UUID) func() {
	m := &a.shards[a.index(key)]
	m.Lock()
	return m.Unlock
}

// index maps a UUID onto a shard. FNV-1a over the 16 raw bytes.
func (a *Arena) index(key uuid.UUID) int {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	hash := uint64(offset64)
	for _, b := range key {
		hash ^= uint64(b)
		hash *= prime64
	}
	return int(hash % uint64(len(a.shards)))
}
