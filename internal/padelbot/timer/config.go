package timer

import (
	"time"

	"github.com/padel-games/padelbot/internal/padelbot/cue"
	"github.com/padel-games/padelbot/internal/sched"
)

const (
	// round limit in normal play
	NormalLimitSeconds = 600
	// shortened limit for checking the alert chain end to end
	TestLimitSeconds = 15
)

type Config struct {
	Code       int64  `json:"code"`
	ChatID     int64  `json:"chatId"`
	AuthorName string `json:"authorName"`
	RoundsNum  int    `json:"roundsNum"`
	TestMode   bool   `json:"testMode"`

	Cue       cue.Notifier                               `json:"-"`
	Scheduler *sched.Scheduler                           `json:"-"`
	ViewFn    func(display Display)                      `json:"-"`
	AlertFn   func(testMode bool)                        `json:"-"`
	PersistFn func(roundIdx int, duration time.Duration) `json:"-"`
}
