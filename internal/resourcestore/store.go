package resourcestore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/padel-games/padelbot/internal/cache"
	"github.com/padel-games/padelbot/internal/database"
	"github.com/padel-games/padelbot/internal/hashutil"
	"github.com/padel-games/padelbot/internal/logging"
	bolt "go.etcd.io/bbolt"
)

// Version tags the snapshot bucket. Bumping it invalidates every previously
// installed snapshot on the next Activate.
const Version = 2

const bucketPrefix = "resources-v"

// Manifest is the fixed set of application resources snapshotted on install.
var Manifest = []string{
	"texts/rules",
	"texts/help",
	"media/logo",
}

var MissingErr = fmt.Errorf("resource missing")

// LoaderFn fetches one resource from its origin.
type LoaderFn func(name string) ([]byte, error)

func New(db *database.DB, cache cache.Cache, loader LoaderFn) *Store {
	return &Store{db: db, cache: cache, loader: loader}
}

// Store serves application resources from a local snapshot, falling back to
// the loader and opportunistically keeping a copy of what it fetched.
type Store struct {
	db     *database.DB
	cache  cache.Cache
	loader LoaderFn
}

func bucketName() []byte {
	return []byte(fmt.Sprintf("%s%d", bucketPrefix, Version))
}

// Install snapshots the manifest into the versioned bucket.
func (s *Store) Install(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("resourcestore")

	if err := s.db.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName())
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		for _, name := range Manifest {
			body, err := s.loader(name)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			if err := b.Put([]byte(name), body); err != nil {
				return fmt.Errorf("put %s: %w", name, err)
			}
			logger.Debugf("installed %s, digest %s", name, hashutil.Digest(body))
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	logger.Infof("snapshot installed, %d resources, version %d", len(Manifest), Version)
	return nil
}

// Activate drops every snapshot bucket whose version tag doesn't match the
// current one.
func (s *Store) Activate(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("resourcestore")

	var stale [][]byte
	if err := s.db.DB.Update(func(tx *bolt.Tx) error {
		if err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if bytes.HasPrefix(name, []byte(bucketPrefix)) && !bytes.Equal(name, bucketName()) {
				stale = append(stale, append([]byte(nil), name...))
			}
			return nil
		}); err != nil {
			return fmt.Errorf("for each bucket: %w", err)
		}

		for _, name := range stale {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("delete bucket %s: %w", name, err)
			}
			logger.Infof("dropped stale snapshot %s", name)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

// Get serves a resource from the snapshot when present, otherwise fetches it
// via the loader and keeps a copy for next time. Store failures on the
// opportunistic write are logged, not returned.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	logger := logging.FromContext(ctx).Named("resourcestore")

	if s.cache != nil {
		if v, ok := s.cache.Get(name); ok {
			return v.([]byte), nil
		}
	}

	var body []byte
	if err := s.db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName())
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(name)); v != nil {
			body = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	if body != nil {
		if s.cache != nil {
			s.cache.Add(name, body)
		}
		return body, nil
	}

	body, err := s.loader(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	if err := s.db.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName())
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		return b.Put([]byte(name), body)
	}); err != nil {
		logger.Errorf("store fetched resource %s: %v", name, err)
	}

	if s.cache != nil {
		s.cache.Add(name, body)
	}

	return body, nil
}
