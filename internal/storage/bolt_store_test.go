package storage

import (
	"testing"
	"time"
)

func TestBoltStoreTracksDigests(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/journal.db", Options{
		SnapshotTTL:     time.Hour,
		CleanupInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	unchanged, err := store.Unchanged("jp9i-3b7y", "digest-a")
	if err != nil || unchanged {
		t.Fatalf("expected no prior digest, unchanged=%v err=%v", unchanged, err)
	}

	if err := store.MarkDelivered("jp9i-3b7y", "digest-a"); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	unchanged, err = store.Unchanged("jp9i-3b7y", "digest-a")
	if err != nil || !unchanged {
		t.Fatalf("expected matching digest, unchanged=%v err=%v", unchanged, err)
	}

	// A different digest means the dataset content changed.
	unchanged, err = store.Unchanged("jp9i-3b7y", "digest-b")
	if err != nil || unchanged {
		t.Fatalf("expected changed digest, unchanged=%v err=%v", unchanged, err)
	}

	// Other datasets are independent.
	unchanged, err = store.Unchanged("erm2-nwe9", "digest-a")
	if err != nil || unchanged {
		t.Fatalf("expected no digest for other dataset, unchanged=%v err=%v", unchanged, err)
	}
}

func TestBoltStoreExpiresEntries(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/journal.db", Options{
		SnapshotTTL:     1 * time.Second,
		CleanupInterval: 1 * time.Second,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	if err := store.MarkDelivered("jp9i-3b7y", "digest-a"); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	unchanged, err := store.Unchanged("jp9i-3b7y", "digest-a")
	if err != nil {
		t.Fatalf("Unchanged after expiry: %v", err)
	}
	if unchanged {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkDelivered("jp9i-3b7y", "x"); err != nil {
		t.Fatalf("noop store MarkDelivered: %v", err)
	}
	unchanged, err := store.Unchanged("jp9i-3b7y", "x")
	if err != nil || unchanged {
		t.Fatalf("noop store should never report unchanged, got %v err=%v", unchanged, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatal("expected error for unsupported storage type")
	}
}
