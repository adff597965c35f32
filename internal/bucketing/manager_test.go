package bucketing

import (
	"testing"

	"contact-relay/internal/config"
)

func TestGetEventBucketIsStableAndInRange(t *testing.T) {
	bm := NewBucketingManager(&config.Config{Bucketing: config.BucketingConfig{EventBuckets: 16}})

	first := bm.GetEventBucket("198.51.100.1")
	for i := 0; i < 10; i++ {
		if got := bm.GetEventBucket("198.51.100.1"); got != first {
			t.Fatalf("bucket changed: %d then %d", first, got)
		}
	}
	for _, id := range []string{"a", "b", "unknown", "2001:db8::1"} {
		if b := bm.GetEventBucket(id); b < 0 || b >= 16 {
			t.Errorf("bucket %d out of range for %q", b, id)
		}
	}
}

func TestNewBucketingManagerClampsBucketCount(t *testing.T) {
	bm := NewBucketingManager(&config.Config{})
	if bm.GetEventBuckets() != 1 {
		t.Fatalf("want 1 bucket, got %d", bm.GetEventBuckets())
	}
	if got := bm.GetEventBucket("anything"); got != 0 {
		t.Errorf("want bucket 0, got %d", got)
	}
}

func TestPartitionKey(t *testing.T) {
	bm := NewBucketingManager(&config.Config{Bucketing: config.BucketingConfig{EventBuckets: 4}})
	key := bm.PartitionKey(3)
	if len(key) != 4 || key[3] != 3 {
		t.Errorf("unexpected key %v", key)
	}
}
