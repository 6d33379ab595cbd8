package dispatch

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// keyedMutex serializes work per aggregate id within this process. Entries
// are never evicted; the key space is bounded by the number of officers and
// incidents touched.
type keyedMutex struct {
	m *xsync.Map[primitive.ObjectID, *sync.Mutex]
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{m: xsync.NewMap[primitive.ObjectID, *sync.Mutex]()}
}

// Lock blocks until id is free and returns the matching unlock.
func (k *keyedMutex) Lock(id primitive.ObjectID) func() {
	mu, ok := k.m.Load(id)
	if !ok {
		mu, _ = k.m.LoadOrStore(id, &sync.Mutex{})
	}
	mu.Lock()
	return mu.Unlock
}
