package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragline/internal/db"
)

type fakeStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	getHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.getHits++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

type countingEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	return e.vec, e.err
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1.5, -2.25, 0}}
	store := newFakeStore()
	c := New(inner, store, "ragline:", nil, zap.NewNop())

	first, err := c.Embed(context.Background(), "the sky is blue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}

	second, err := c.Embed(context.Background(), "the sky is blue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d after hit, want 1", inner.calls)
	}
	if len(second) != len(first) {
		t.Fatalf("vector length changed: %d != %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("vec[%d] = %v, want %v", i, second[i], first[i])
		}
	}
}

func TestEmbed_DistinctTextsDistinctKeys(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	store := newFakeStore()
	c := New(inner, store, "ragline:", nil, zap.NewNop())

	_, _ = c.Embed(context.Background(), "one")
	_, _ = c.Embed(context.Background(), "two")
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
	if len(store.data) != 2 {
		t.Errorf("cached entries = %d, want 2", len(store.data))
	}
}

func TestEmbed_StoreFailureFallsThrough(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2}}
	store := newFakeStore()
	store.getErr = errors.New("connection reset")
	store.setErr = errors.New("connection reset")
	c := New(inner, store, "ragline:", nil, zap.NewNop())

	vec, err := c.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("cache failure must not be fatal: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("vec = %v", vec)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	wantErr := errors.New("provider down")
	inner := &countingEmbedder{err: wantErr}
	c := New(inner, newFakeStore(), "ragline:", nil, zap.NewNop())

	_, err := c.Embed(context.Background(), "text")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected inner error, got %v", err)
	}
}

func TestEmbed_CorruptCacheEntryIgnored(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{3}}
	store := newFakeStore()
	c := New(inner, store, "ragline:", nil, zap.NewNop())

	store.data[c.cacheKey("text")] = []byte{1, 2, 3} // not a multiple of 4

	vec, err := c.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 1 || vec[0] != 3 {
		t.Errorf("vec = %v, want [3]", vec)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}
