package services

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const lockShards = 64

// lockTable serializes mutations per conversation without a global lock:
// a conversation id always hashes to the same shard, so same-conversation
// writers queue while unrelated conversations proceed in parallel.
type lockTable struct {
	shards [lockShards]sync.Mutex
}

func newLockTable() *lockTable { return &lockTable{} }

func (t *lockTable) lock(id uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(id[:])
	m := &t.shards[h.Sum32()%lockShards]
	m.Lock()
	return m
}
