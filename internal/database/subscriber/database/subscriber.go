package database

import (
	"encoding/json"
	"fmt"

	"github.com/padel-games/padelbot/internal/byteutil"
	"github.com/padel-games/padelbot/internal/cache"
	"github.com/padel-games/padelbot/internal/database"
	"github.com/padel-games/padelbot/internal/database/subscriber/model"
	bolt "go.etcd.io/bbolt"
)

var EntryNotFoundErr = fmt.Errorf("not found")

const bucket = "subscribers"

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
}

type fetchFn func(key int64) ([]byte, error)

func (db *DB) cachedValue(key int64, fn fetchFn) (model.Subscriber, error) {
	if db.cache != nil {
		v, ok := db.cache.Get(key)
		if ok {
			return v.(model.Subscriber), nil
		}
	}

	var s model.Subscriber
	bytes, err := fn(key)
	if err != nil {
		return s, fmt.Errorf("fetch: %w", err)
	}

	if len(bytes) == 0 {
		return s, EntryNotFoundErr
	}

	if err := json.Unmarshal(bytes, &s); err != nil {
		return s, fmt.Errorf("unmarshal: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(key, s)
	}

	return s, nil
}

func (db *DB) Fetch(chatID int64) (model.Subscriber, error) {
	pk := byteutil.EncodeInt64ToBytes(chatID)
	s, err := db.cachedValue(chatID, func(key int64) ([]byte, error) {
		var bytes []byte

		if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(bucket))
			if b == nil {
				return EntryNotFoundErr
			}
			bytes = b.Get(pk)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("view transaction error: %w", err)
		}

		return bytes, nil
	})

	if err != nil {
		return s, fmt.Errorf("cached value: %w", err)
	}

	return s, nil
}

func (db *DB) Store(m model.Subscriber) error {
	bytes, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	pk := byteutil.EncodeInt64ToBytes(m.ChatID)
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			bs, err := tx.CreateBucket([]byte(bucket))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}

			b = bs
		}

		if err := b.Put(pk, bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}

		if db.cache != nil {
			db.cache.Add(m.ChatID, m)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}
