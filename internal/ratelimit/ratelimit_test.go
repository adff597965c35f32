package ratelimit

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"contact-relay/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 5, 9, 3, 7, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(clock *fakeClock, rejectUnknown bool) (*Limiter, *MemoryStore) {
	store := NewMemoryStore(clock.Now)
	return NewLimiter(store, Options{
		MaxPerWindow:  3,
		Window:        time.Minute,
		RejectUnknown: rejectUnknown,
		Clock:         clock.Now,
	}, nil), store
}

func TestLimiterRejectsFourthRequestInWindow(t *testing.T) {
	clock := newFakeClock()
	l, store := newTestLimiter(clock, false)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, "203.0.113.7")
		if err != nil || !d.Allowed {
			t.Fatalf("request %d: want allowed, got %+v err=%v", i, d, err)
		}
		if d.Count != i {
			t.Errorf("request %d: want count %d, got %d", i, i, d.Count)
		}
	}

	clock.Advance(30 * time.Second)
	d, err := l.Allow(ctx, "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth request should be rejected")
	}
	if entry, _ := store.Entry("203.0.113.7"); entry.Count != 3 {
		t.Errorf("rejected request must not increment, count=%d", entry.Count)
	}
	if got := d.RetryAfter(clock.Now()); got != 30*time.Second {
		t.Errorf("want retry after 30s, got %s", got)
	}
}

func TestLimiterResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	l, store := newTestLimiter(clock, false)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		l.Allow(ctx, "client")
	}

	clock.Advance(time.Minute + time.Millisecond)
	d, err := l.Allow(ctx, "client")
	if err != nil || !d.Allowed {
		t.Fatalf("want allowed after window, got %+v err=%v", d, err)
	}
	entry, ok := store.Entry("client")
	if !ok || entry.Count != 1 {
		t.Fatalf("want counter reset to 1, got %+v", entry)
	}
	if !entry.ResetTime.Equal(clock.Now().Add(time.Minute)) {
		t.Errorf("reset time not renewed: %s", entry.ResetTime)
	}
}

func TestLimiterWindowBoundaryIsInclusive(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLimiter(clock, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Allow(ctx, "client")
	}
	clock.Advance(time.Minute)
	if d, _ := l.Allow(ctx, "client"); d.Allowed {
		t.Fatal("request exactly at reset time still belongs to the old window")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLimiter(clock, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Allow(ctx, "a")
	}
	if d, _ := l.Allow(ctx, "b"); !d.Allowed {
		t.Fatal("client b should not share client a's bucket")
	}
}

func TestLimiterUnknownPolicy(t *testing.T) {
	clock := newFakeClock()
	ctx := context.Background()

	shared, _ := newTestLimiter(clock, false)
	if d, err := shared.Allow(ctx, UnknownClient); err != nil || !d.Allowed {
		t.Fatalf("shared policy should allow unknown clients, got %+v err=%v", d, err)
	}

	reject, store := newTestLimiter(clock, true)
	if _, err := reject.Allow(ctx, UnknownClient); !errors.Is(err, ErrUnidentifiedClient) {
		t.Fatalf("want ErrUnidentifiedClient, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("rejected unknown client must not touch the store")
	}
}

func TestLimiterConcurrentBurstIsNotUndercounted(t *testing.T) {
	clock := newFakeClock()
	l, store := newTestLimiter(clock, false)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := l.Allow(ctx, "burst")
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 3 {
		t.Errorf("want exactly 3 allowed, got %d", allowed)
	}
	if entry, _ := store.Entry("burst"); entry.Count != 3 {
		t.Errorf("want count 3, got %d", entry.Count)
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, int, time.Duration) (models.RateLimitDecision, error) {
	return models.RateLimitDecision{}, errors.New("connection refused")
}
func (failingStore) HealthCheck(context.Context) error { return errors.New("down") }
func (failingStore) Name() string                      { return "failing" }

func TestLimiterFailsOpenOnStoreError(t *testing.T) {
	l := NewLimiter(failingStore{}, Options{MaxPerWindow: 3, Window: time.Minute}, nil)
	d, err := l.Allow(context.Background(), "client")
	if err != nil || !d.Allowed {
		t.Fatalf("want fail-open allow, got %+v err=%v", d, err)
	}
}

func TestClientIdentifier(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.1"}, "198.51.100.1"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "198.51.100.1", "X-Real-IP": "198.51.100.2"}, "198.51.100.1"},
		{"real ip fallback", map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"empty forwarded entry falls through", map[string]string{"X-Forwarded-For": " ,10.0.0.1", "X-Real-IP": "198.51.100.3"}, "198.51.100.3"},
		{"unknown", nil, UnknownClient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/send-email", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIdentifier(r); got != tc.want {
				t.Errorf("want %q, got %q", tc.want, got)
			}
		})
	}
}
