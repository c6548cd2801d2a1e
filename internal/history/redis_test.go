package history

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testRedisStore(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisWithClient(client, "newsent")
}

func TestRedisStartsEmpty(t *testing.T) {
	r := testRedisStore(t)
	ctx := context.Background()

	n, err := r.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("new store has %d entries, want 0", n)
	}
	entries, err := r.Entries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("new store returned %d entries, want 0", len(entries))
	}
}

func TestRedisAddAndRead(t *testing.T) {
	r := testRedisStore(t)
	ctx := context.Background()

	if err := r.Add(ctx, "Acme Corp", testBatch("Acme Corp", 2)); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(ctx, "Globex", testBatch("Globex", 1)); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(ctx, "Acme Corp", testBatch("Acme Corp", 3)); err != nil {
		t.Fatal(err)
	}

	entries, err := r.Entries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Insertion order preserved across the serialization round trip.
	if entries[0].Query != "Acme Corp" || entries[1].Query != "Globex" {
		t.Errorf("entries out of order: %v, %v", entries[0].Query, entries[1].Query)
	}
	if entries[0].Batch == nil || entries[0].Batch.Len() != 2 {
		t.Errorf("first batch did not survive persistence: %+v", entries[0].Batch)
	}

	n, err := r.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Len: got %d, want 3", n)
	}

	acme, err := r.ByQuery(ctx, "Acme Corp")
	if err != nil {
		t.Fatal(err)
	}
	if len(acme) != 2 {
		t.Fatalf("ByQuery: got %d entries, want 2", len(acme))
	}
	if acme[0].Batch.Len() != 2 || acme[1].Batch.Len() != 3 {
		t.Error("ByQuery entries not oldest-first")
	}

	none, err := r.ByQuery(ctx, "Unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("unknown query: got %d entries, want 0", len(none))
	}
}

func TestRedisClear(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	r := NewRedisWithClient(client, "newsent")
	ctx := context.Background()

	for _, q := range []string{"Acme Corp", "Globex", "Acme Corp"} {
		if err := r.Add(ctx, q, testBatch(q, 1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	n, err := r.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("after Clear: %d entries, want 0", n)
	}
	acme, err := r.ByQuery(ctx, "Acme Corp")
	if err != nil {
		t.Fatal(err)
	}
	if len(acme) != 0 {
		t.Errorf("after Clear: query list kept %d entries", len(acme))
	}

	// Clear must remove every key under the prefix, not just empty the
	// global list.
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "newsent:") {
			t.Errorf("key %q survived Clear", key)
		}
	}

	// A subsequent Add is unaffected by the cleared past.
	if err := r.Add(ctx, "Acme Corp", testBatch("Acme Corp", 1)); err != nil {
		t.Fatal(err)
	}
	n, _ = r.Len(ctx)
	if n != 1 {
		t.Errorf("after Clear+Add: %d entries, want 1", n)
	}
}

func TestRedisPrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	a := NewRedisWithClient(client, "alpha")
	b := NewRedisWithClient(client, "beta")

	if err := a.Add(ctx, "Acme Corp", testBatch("Acme Corp", 1)); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(ctx, "Globex", testBatch("Globex", 1)); err != nil {
		t.Fatal(err)
	}

	if err := a.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	n, err := b.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("clearing one prefix touched the other: got %d entries, want 1", n)
	}
}
