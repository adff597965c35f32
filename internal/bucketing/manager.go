package bucketing

import (
	"encoding/binary"
	"hash"
	"sync"

	"contact-relay/internal/config"

	"github.com/spaolacci/murmur3"
)

// BucketingManager maps client identifiers onto a fixed number of buckets.
// Audit events carry the bucket instead of the identifier itself and use
// it as their partition key.
type BucketingManager struct {
	eventBuckets int
	hasherPool   sync.Pool
}

func NewBucketingManager(cfg *config.Config) *BucketingManager {
	buckets := cfg.Bucketing.EventBuckets
	if buckets < 1 {
		buckets = 1
	}
	bm := &BucketingManager{eventBuckets: buckets}
	bm.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}
	return bm
}

// GetEventBucket returns a stable bucket in [0, eventBuckets).
func (bm *BucketingManager) GetEventBucket(identifier string) int {
	return int(bm.getHash(identifier) % uint64(bm.eventBuckets))
}

// PartitionKey is the bucket encoded for use as a message key.
func (bm *BucketingManager) PartitionKey(bucket int) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, uint32(bucket))
	return key
}

func (bm *BucketingManager) GetEventBuckets() int {
	return bm.eventBuckets
}

func (bm *BucketingManager) getHash(key string) uint64 {
	hasher := bm.hasherPool.Get().(hash.Hash64)
	defer bm.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
