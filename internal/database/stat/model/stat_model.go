package model

import (
	"time"

	"github.com/google/uuid"
)

func NewRoundStat(code int64, roundIdx int, duration time.Duration) RoundStat {
	return RoundStat{
		ID:        uuid.New(),
		Code:      code,
		RoundIdx:  roundIdx,
		Duration:  duration,
		CreatedAt: time.Now(),
	}
}

// RoundStat is one finished round. Records are append-only; a round index is
// written at most once per tournament.
type RoundStat struct {
	ID       uuid.UUID `json:"id"`
	Code     int64     `json:"code"`
	RoundIdx int       `json:"roundIdx"`

	Duration  time.Duration `json:"duration"`
	TestMode  bool          `json:"testMode"`
	CreatedAt time.Time     `json:"createdAt"`
}

type AggregationStat struct {
	Count         int
	SumDuration   time.Duration
	AvgDuration   time.Duration
	BestDuration  time.Duration
	WorstDuration time.Duration
}
