package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage tracks the digest of the last delivered snapshot per
// dataset, so unchanged pulls are not re-delivered downstream.

// Store remembers delivered snapshot digests.
type Store interface {
	Close() error
	// Unchanged reports whether the digest matches the last delivered
	// snapshot for the dataset.
	Unchanged(datasetID, digest string) (bool, error)
	// MarkDelivered records the digest of a delivered snapshot.
	MarkDelivered(datasetID, digest string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SnapshotTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSnapshotTTL     = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore never reports a snapshot as unchanged, so every pull is delivered.
type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) Unchanged(string, string) (bool, error) { return false, nil }
func (noopStore) MarkDelivered(string, string) error     { return nil }
