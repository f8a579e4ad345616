package resourcestore

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/padel-games/padelbot/internal/cache"
	"github.com/padel-games/padelbot/internal/database"
	bolt "go.etcd.io/bbolt"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return &database.DB{DB: db}
}

func testCache(t *testing.T) cache.Cache {
	t.Helper()

	c, err := cache.NewLRU(64)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}
	return c
}

func mapLoader(resources map[string][]byte, calls *int64) LoaderFn {
	return func(name string) ([]byte, error) {
		atomic.AddInt64(calls, 1)
		body, ok := resources[name]
		if !ok {
			return nil, MissingErr
		}
		return body, nil
	}
}

func manifestFixture() map[string][]byte {
	resources := map[string][]byte{}
	for _, name := range Manifest {
		resources[name] = []byte("body of " + name)
	}
	return resources
}

func TestInstallThenGetServesSnapshot(t *testing.T) {
	t.Parallel()

	var calls int64
	resources := manifestFixture()
	store := New(testDB(t), testCache(t), mapLoader(resources, &calls))
	ctx := context.Background()

	if err := store.Install(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}
	installCalls := atomic.LoadInt64(&calls)

	for _, name := range Manifest {
		body, err := store.Get(ctx, name)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		if !bytes.Equal(body, resources[name]) {
			t.Fatalf("wrong body for %s: %q", name, body)
		}
	}

	// everything came from the snapshot
	if atomic.LoadInt64(&calls) != installCalls {
		t.Fatalf("loader hit after install: %d calls", calls)
	}
}

func TestGetFetchesAndKeepsCopy(t *testing.T) {
	t.Parallel()

	var calls int64
	resources := manifestFixture()
	resources["texts/extra"] = []byte("late addition")
	store := New(testDB(t), nil, mapLoader(resources, &calls))
	ctx := context.Background()

	body, err := store.Get(ctx, "texts/extra")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(body) != "late addition" {
		t.Fatalf("wrong body: %q", body)
	}
	if atomic.LoadInt64(&calls) != 1 {
		t.Fatalf("expected 1 loader call, got %d", calls)
	}

	// the fetched copy was kept, second read is local
	if _, err := store.Get(ctx, "texts/extra"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if atomic.LoadInt64(&calls) != 1 {
		t.Fatalf("expected cached read, loader calls: %d", calls)
	}
}

func TestGetMissingResource(t *testing.T) {
	t.Parallel()

	var calls int64
	store := New(testDB(t), nil, mapLoader(map[string][]byte{}, &calls))

	if _, err := store.Get(context.Background(), "texts/nope"); err == nil {
		t.Fatal("expected error for unknown resource")
	}
}

func TestActivateDropsStaleSnapshots(t *testing.T) {
	t.Parallel()

	var calls int64
	db := testDB(t)
	store := New(db, nil, mapLoader(manifestFixture(), &calls))
	ctx := context.Background()

	// a leftover snapshot from a previous version
	staleName := []byte(fmt.Sprintf("%s%d", bucketPrefix, Version-1))
	if err := db.DB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket(staleName)
		return err
	}); err != nil {
		t.Fatalf("create stale bucket: %v", err)
	}

	if err := store.Install(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := store.Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if err := db.DB.View(func(tx *bolt.Tx) error {
		if tx.Bucket(staleName) != nil {
			t.Error("stale snapshot survived activate")
		}
		if tx.Bucket(bucketName()) == nil {
			t.Error("current snapshot removed by activate")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}
