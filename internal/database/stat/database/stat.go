package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/padel-games/padelbot/internal/cache"
	"github.com/padel-games/padelbot/internal/database"
	"github.com/padel-games/padelbot/internal/database/stat/model"
	bolt "go.etcd.io/bbolt"
)

const prefix = "roundstat"

var EntryNotFoundErr = fmt.Errorf("not found")

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
}

// SerialBucket is the per-tournament bucket name.
func (db *DB) SerialBucket(code int64) string {
	return fmt.Sprintf("%s%d", prefix, code)
}

func (db *DB) Add(m model.RoundStat) error {
	bytes, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(db.SerialBucket(m.Code)))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		if err := b.Put(m.ID[:], bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	// recorded durations changed, the cached aggregate is stale
	if db.cache != nil {
		db.cache.Delete(m.Code)
	}

	return nil
}

func (db *DB) FetchByCode(code int64) ([]model.RoundStat, error) {
	var list []model.RoundStat

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(db.SerialBucket(code)))
		if b == nil {
			return EntryNotFoundErr
		}

		if err := b.ForEach(func(k, v []byte) error {
			var stat model.RoundStat
			if err := json.Unmarshal(v, &stat); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, stat)
			return nil
		}); err != nil {
			return fmt.Errorf("bucket for each: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// FetchAggregation computes duration aggregates for one tournament. Results
// are cached until the next Add.
func (db *DB) FetchAggregation(code int64) (model.AggregationStat, error) {
	if db.cache != nil {
		if v, ok := db.cache.Get(code); ok {
			return v.(model.AggregationStat), nil
		}
	}

	var agg model.AggregationStat
	stats, err := db.FetchByCode(code)
	if err != nil {
		return agg, fmt.Errorf("fetch by code: %w", err)
	}

	for _, stat := range stats {
		agg.Count++
		agg.SumDuration += stat.Duration

		if agg.BestDuration == 0 || stat.Duration < agg.BestDuration {
			agg.BestDuration = stat.Duration
		}
		if stat.Duration > agg.WorstDuration {
			agg.WorstDuration = stat.Duration
		}
	}

	if agg.Count > 0 {
		agg.AvgDuration = agg.SumDuration / time.Duration(agg.Count)
	}

	if db.cache != nil {
		db.cache.Add(code, agg)
	}

	return agg, nil
}
