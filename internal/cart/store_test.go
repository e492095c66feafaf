package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/shopfront/pkg/redis"
)

type fakeKV struct {
	data    map[string]string
	ttls    map[string]time.Duration
	touched []string
	failGet error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.failGet != nil {
		return "", f.failGet
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) Touch(_ context.Context, key string, _ time.Duration) error {
	f.touched = append(f.touched, key)
	return nil
}

func (f *fakeKV) CartKey(sessionID string) string {
	return "sf:cart:" + sessionID
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store, err := NewRedisStore(kv, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	lines, err := store.Load(ctx, "abc")
	if err != nil || len(lines) != 0 {
		t.Fatalf("missing cart should load empty, got %+v %v", lines, err)
	}

	if err := store.Save(ctx, "abc", []Line{{ProductID: 1, Quantity: 2}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if kv.data["sf:cart:abc"] != `[{"productId":1,"quantity":2}]` {
		t.Fatalf("unexpected stored payload %q", kv.data["sf:cart:abc"])
	}
	if kv.ttls["sf:cart:abc"] != time.Hour {
		t.Fatalf("expected ttl to be applied")
	}

	lines, err = store.Load(ctx, "abc")
	if err != nil || len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("unexpected load %+v %v", lines, err)
	}
	if len(kv.touched) != 1 {
		t.Fatalf("load should refresh ttl")
	}

	if err := store.Save(ctx, "abc", nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, ok := kv.data["sf:cart:abc"]; ok {
		t.Fatalf("saving an empty cart should delete the key")
	}
}

func TestRedisStoreSurfacesErrors(t *testing.T) {
	kv := newFakeKV()
	kv.failGet = errors.New("connection refused")
	store, err := NewRedisStore(kv, 0)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Load(context.Background(), "abc"); err == nil {
		t.Fatalf("expected load error")
	}
	if _, err := NewRedisStore(nil, time.Hour); err == nil {
		t.Fatalf("expected error without client")
	}
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Save(ctx, "a", []Line{{ProductID: 1, Quantity: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	other, err := store.Load(ctx, "b")
	if err != nil || len(other) != 0 {
		t.Fatalf("sessions must not share carts, got %+v", other)
	}
	if err := store.Clear(ctx, "a"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	lines, _ := store.Load(ctx, "a")
	if len(lines) != 0 {
		t.Fatalf("expected cleared cart")
	}
}
