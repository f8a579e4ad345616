package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	db "github.com/padel-games/padelbot/internal/database"
	"github.com/padel-games/padelbot/internal/database/tournament/model"
	bolt "go.etcd.io/bbolt"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	bdb, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() {
		_ = bdb.Close()
	})

	return New(&db.DB{DB: bdb})
}

func TestAddThenFetchAllRoundTrip(t *testing.T) {
	t.Parallel()

	tdb := testDB(t)
	state := model.State{
		Code:         101,
		ChatID:       555,
		AuthorName:   "ana",
		RoundsNum:    8,
		State:        3,
		CurrRoundIdx: 2,
		Durations: map[int]time.Duration{
			0: 3 * time.Second,
			1: 5 * time.Second,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := tdb.Add(state); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := tdb.FetchAll()
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d states, want 1", len(list))
	}

	got := list[0]
	if got.Code != state.Code || got.ChatID != state.ChatID || got.CurrRoundIdx != state.CurrRoundIdx {
		t.Fatalf("restored state mismatch: %+v", got)
	}
	if len(got.Durations) != 2 || got.Durations[1] != 5*time.Second {
		t.Fatalf("restored durations mismatch: %+v", got.Durations)
	}
}

func TestAddOverwritesSameCode(t *testing.T) {
	t.Parallel()

	tdb := testDB(t)

	if err := tdb.Add(model.State{Code: 101, CurrRoundIdx: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tdb.Add(model.State{Code: 101, CurrRoundIdx: 4}); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := tdb.FetchAll()
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d states, want 1", len(list))
	}
	if list[0].CurrRoundIdx != 4 {
		t.Fatalf("curr round idx = %d, want 4", list[0].CurrRoundIdx)
	}
}

func TestFetchAllEmpty(t *testing.T) {
	t.Parallel()

	tdb := testDB(t)
	if _, err := tdb.FetchAll(); !errors.Is(err, EntryNotFoundErr) {
		t.Fatalf("got %v, want EntryNotFoundErr", err)
	}
}

func TestCleanDropsSerializedStates(t *testing.T) {
	t.Parallel()

	tdb := testDB(t)

	if err := tdb.Add(model.State{Code: 101}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tdb.Clean(); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, err := tdb.FetchAll(); !errors.Is(err, EntryNotFoundErr) {
		t.Fatalf("got %v, want EntryNotFoundErr", err)
	}
}

func TestCleanWithoutBucket(t *testing.T) {
	t.Parallel()

	tdb := testDB(t)
	if err := tdb.Clean(); !errors.Is(err, BucketNotFoundErr) {
		t.Fatalf("got %v, want BucketNotFoundErr", err)
	}
}
