// Package keymutex provides string-keyed mutual exclusion backed by a fixed
// pool of mutex stripes. Keys are mapped onto stripes by a stable FNV-1a
// hash, so two callers contending on the same key always serialize while
// callers on other keys almost always proceed independently.
package keymutex

import (
	"hash/fnv"
	"sync"
)

const defaultStripes = 64

type KeyMutex struct {
	stripes []sync.Mutex
}

// New returns a KeyMutex with the given number of stripes. Values below one
// fall back to the default of 64.
func New(stripes int) *KeyMutex {
	if stripes < 1 {
		stripes = defaultStripes
	}
	return &KeyMutex{stripes: make([]sync.Mutex, stripes)}
}

// Lock acquires the stripe for key, blocking while any other holder of the
// same stripe is active.
func (m *KeyMutex) Lock(key string) {
	m.stripes[m.index(key)].Lock()
}

// Unlock releases the stripe for key.
func (m *KeyMutex) Unlock(key string) {
	m.stripes[m.index(key)].Unlock()
}

func (m *KeyMutex) index(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % uint32(len(m.stripes))
}
