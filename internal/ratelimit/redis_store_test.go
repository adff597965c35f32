package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRunner struct {
	result interface{}
	err    error
	keys   []string
	args   []interface{}
}

func (f *fakeRunner) Eval(_ context.Context, _ string, keys []string, args ...interface{}) (interface{}, error) {
	f.keys = keys
	f.args = args
	return f.result, f.err
}

func (f *fakeRunner) HealthCheck(context.Context) error { return f.err }

func TestRedisStoreParsesScriptResult(t *testing.T) {
	clock := newFakeClock()
	runner := &fakeRunner{result: []interface{}{int64(1), int64(2), int64(45000)}}
	store := NewRedisStore(runner, clock.Now)

	d, err := store.Hit(context.Background(), "198.51.100.1", 3, time.Minute)
	if err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if !d.Allowed || d.Count != 2 || d.Limit != 3 {
		t.Errorf("unexpected decision %+v", d)
	}
	if want := clock.Now().Add(45 * time.Second); !d.ResetTime.Equal(want) {
		t.Errorf("want reset %s, got %s", want, d.ResetTime)
	}
	if len(runner.keys) != 1 || runner.keys[0] != "rate_limit:contact:198.51.100.1" {
		t.Errorf("unexpected keys %v", runner.keys)
	}
	if runner.args[0] != 3 || runner.args[1] != int64(60000) {
		t.Errorf("unexpected args %v", runner.args)
	}
}

func TestRedisStoreRejected(t *testing.T) {
	runner := &fakeRunner{result: []interface{}{int64(0), int64(3), int64(1000)}}
	d, err := NewRedisStore(runner, nil).Hit(context.Background(), "k", 3, time.Minute)
	if err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if d.Allowed {
		t.Error("want rejected")
	}
}

func TestRedisStoreErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewRedisStore(&fakeRunner{err: errors.New("boom")}, nil).Hit(ctx, "k", 3, time.Minute); err == nil {
		t.Error("want eval error")
	}
	if _, err := NewRedisStore(&fakeRunner{result: "OK"}, nil).Hit(ctx, "k", 3, time.Minute); err == nil {
		t.Error("want format error")
	}
	if _, err := NewRedisStore(&fakeRunner{result: []interface{}{"1", "2", "3"}}, nil).Hit(ctx, "k", 3, time.Minute); err == nil {
		t.Error("want type error")
	}
}
