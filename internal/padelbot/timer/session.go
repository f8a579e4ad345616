package timer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/padel-games/padelbot/internal/logging"
	"github.com/padel-games/padelbot/internal/padelbot/cue"
	"github.com/padel-games/padelbot/internal/sched"
)

const (
	StateKindIdle uint8 = iota + 1
	StateKindRunning
	StateKindPaused
	StateKindFinished
)

const tickInterval = 1 * time.Second

// Placeholder shown where no statistic can be computed yet.
const Placeholder = "--:--"

// Display carries the values computed for one render pass. The session never
// touches the chat for display output; the injected view callback does.
type Display struct {
	State        uint8
	Elapsed      string
	Average      string
	EstimatedEnd string
	CurrRound    int
	RoundsNum    int
}

func NewSession(config Config) *Session {
	return &Session{
		Config:    config,
		Code:      config.Code,
		State:     StateKindIdle,
		TestMode:  config.TestMode,
		durations: map[int]time.Duration{},
		cue:       config.Cue,
		scheduler: config.Scheduler,
		viewFn:    config.ViewFn,
		alertFn:   config.AlertFn,
		persistFn: config.PersistFn,
		CreatedAt: time.Now(),
	}
}

// Session owns the round clock for one tournament chat: start/pause/reset/
// finish transitions, the 1 s display tick, limit-crossing detection and the
// derived statistics.
type Session struct {
	Config Config

	Code      int64
	CreatedAt time.Time

	mtx          sync.RWMutex
	State        uint8
	CurrRoundIdx int
	TestMode     bool

	// roundStart survives pause/resume: elapsed is always now-roundStart, so
	// pausing stops the tick and nothing else.
	roundStart      time.Time
	tournamentStart time.Time
	// recorded round durations by round index, immutable once set
	durations map[int]time.Duration

	tick *sched.Task

	cue       cue.Notifier
	scheduler *sched.Scheduler
	viewFn    func(display Display)
	alertFn   func(testMode bool)
	persistFn func(roundIdx int, duration time.Duration)
}

// Start moves Idle/Paused/Finished to Running and begins the display tick.
func (s *Session) Start(ctx context.Context) {
	s.mtx.Lock()
	if s.State == StateKindRunning {
		s.mtx.Unlock()
		return
	}

	now := s.scheduler.Clock().Now()
	if s.roundStart.IsZero() {
		s.roundStart = now
	}
	if s.tournamentStart.IsZero() {
		s.tournamentStart = now
	}

	s.State = StateKindRunning
	s.cancelTickLocked()
	s.tick = s.scheduler.Every(tickInterval, func() {
		s.onTick(ctx)
	})
	display := s.displayLocked(now)
	s.mtx.Unlock()

	logging.FromContext(ctx).Named("timer").Infof("round clock started, code: %d", s.Code)
	s.viewFn(display)
	s.cue.Tone(ctx, cue.KindStart)
	s.cue.Vibrate(ctx, cue.PatternStart)
}

// Pause stops the tick. The wall clock keeps counting from the original
// round start.
func (s *Session) Pause(ctx context.Context) {
	s.mtx.Lock()
	if s.State != StateKindRunning {
		s.mtx.Unlock()
		return
	}

	s.State = StateKindPaused
	s.cancelTickLocked()
	display := s.displayLocked(s.scheduler.Clock().Now())
	s.mtx.Unlock()

	logging.FromContext(ctx).Named("timer").Infof("round clock paused, code: %d", s.Code)
	s.viewFn(display)
	s.cue.Tone(ctx, cue.KindPause)
	s.cue.Vibrate(ctx, cue.PatternPause)
}

// Reset clears the round clock from any state.
func (s *Session) Reset(ctx context.Context) {
	s.mtx.Lock()
	s.State = StateKindIdle
	s.cancelTickLocked()
	s.roundStart = time.Time{}
	display := s.displayLocked(s.scheduler.Clock().Now())
	s.mtx.Unlock()

	logging.FromContext(ctx).Named("timer").Infof("round clock reset, code: %d", s.Code)
	s.viewFn(display)
}

// Finish records the elapsed duration at the current round index, stops the
// tick and hands the duration to the persistence hook. Recording is
// write-once per round index.
func (s *Session) Finish(ctx context.Context) {
	s.mtx.Lock()
	if s.roundStart.IsZero() {
		s.mtx.Unlock()
		return
	}

	now := s.scheduler.Clock().Now()
	idx := s.CurrRoundIdx

	var duration time.Duration
	recorded := false
	if _, ok := s.durations[idx]; !ok {
		duration = now.Sub(s.roundStart)
		s.durations[idx] = duration
		recorded = true
	}

	s.State = StateKindFinished
	s.cancelTickLocked()
	s.roundStart = time.Time{}
	s.CurrRoundIdx++
	display := s.displayLocked(now)
	s.mtx.Unlock()

	logging.FromContext(ctx).Named("timer").Infof(
		"round %d finished in %s, code: %d", idx+1, duration, s.Code,
	)
	s.viewFn(display)
	s.cue.Tone(ctx, cue.KindFinish)
	s.cue.Vibrate(ctx, cue.PatternFinish)

	if recorded && s.persistFn != nil {
		// fire-and-forget, failures are the collaborator's concern
		go s.persistFn(idx, duration)
	}
}

// ToggleMode flips between normal and test limits, forces a reset and
// reports the new mode for the confirmation message.
func (s *Session) ToggleMode(ctx context.Context) bool {
	s.mtx.Lock()
	s.TestMode = !s.TestMode
	testMode := s.TestMode
	s.mtx.Unlock()

	s.Reset(ctx)
	logging.FromContext(ctx).Named("timer").Infof("mode switched, test: %v, code: %d", testMode, s.Code)
	return testMode
}

func (s *Session) onTick(ctx context.Context) {
	s.mtx.Lock()
	if s.State != StateKindRunning || s.roundStart.IsZero() {
		s.mtx.Unlock()
		return
	}

	now := s.scheduler.Clock().Now()
	totalSeconds := int(now.Sub(s.roundStart) / time.Second)
	limit := s.limitSecondsLocked()
	testMode := s.TestMode
	display := s.displayLocked(now)
	s.mtx.Unlock()

	s.viewFn(display)

	// Exact equality: a tick lost to scheduling drift silently skips the
	// alert. Known edge case, kept as-is.
	if totalSeconds == limit {
		logging.FromContext(ctx).Named("timer").Infof("limit reached at %ds, code: %d", totalSeconds, s.Code)
		s.cue.Tone(ctx, cue.KindBuzzer)
		s.cue.Vibrate(ctx, cue.PatternBuzzer)
		if s.alertFn != nil {
			s.alertFn(testMode)
		}
	}
}

// Stop cancels the tick without touching the round state. Used on shutdown
// after the session has been serialized.
func (s *Session) Stop() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.cancelTickLocked()
}

func (s *Session) cancelTickLocked() {
	if s.tick != nil {
		s.tick.Cancel()
		s.tick = nil
	}
}

func (s *Session) LimitSeconds() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.limitSecondsLocked()
}

func (s *Session) limitSecondsLocked() int {
	if s.TestMode {
		return TestLimitSeconds
	}
	return NormalLimitSeconds
}

func (s *Session) GetState() uint8 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.State
}

func (s *Session) CurrRound() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.CurrRoundIdx
}

// Durations returns the recorded round durations ordered by round index.
func (s *Session) Durations() []time.Duration {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	indexes := make([]int, 0, len(s.durations))
	for idx := range s.durations {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	list := make([]time.Duration, 0, len(indexes))
	for _, idx := range indexes {
		list = append(list, s.durations[idx])
	}

	return list
}

// Snapshot captures the serializable session state.
func (s *Session) Snapshot() Snap {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	durations := make(map[int]time.Duration, len(s.durations))
	for idx, d := range s.durations {
		durations[idx] = d
	}

	return Snap{
		Code:            s.Code,
		ChatID:          s.Config.ChatID,
		AuthorName:      s.Config.AuthorName,
		RoundsNum:       s.Config.RoundsNum,
		State:           s.State,
		CurrRoundIdx:    s.CurrRoundIdx,
		TestMode:        s.TestMode,
		RoundStart:      s.roundStart,
		TournamentStart: s.tournamentStart,
		Durations:       durations,
		CreatedAt:       s.CreatedAt,
	}
}

// Snap is the serializable image of a session, persisted across restarts.
type Snap struct {
	Code            int64                 `json:"code"`
	ChatID          int64                 `json:"chatId"`
	AuthorName      string                `json:"authorName"`
	RoundsNum       int                   `json:"roundsNum"`
	State           uint8                 `json:"state"`
	CurrRoundIdx    int                   `json:"currRoundIdx"`
	TestMode        bool                  `json:"testMode"`
	RoundStart      time.Time             `json:"roundStart"`
	TournamentStart time.Time             `json:"tournamentStart"`
	Durations       map[int]time.Duration `json:"durations"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// NewFromSnapshot rebuilds a session from its serialized image. A session
// that was Running comes back Paused; the round start survives, so elapsed
// time includes the downtime.
func NewFromSnapshot(snap Snap, config Config) *Session {
	s := NewSession(config)
	s.Code = snap.Code
	s.CurrRoundIdx = snap.CurrRoundIdx
	s.TestMode = snap.TestMode
	s.roundStart = snap.RoundStart
	s.tournamentStart = snap.TournamentStart
	s.CreatedAt = snap.CreatedAt

	for idx, d := range snap.Durations {
		s.durations[idx] = d
	}

	switch snap.State {
	case StateKindRunning:
		s.State = StateKindPaused
	case 0:
		s.State = StateKindIdle
	default:
		s.State = snap.State
	}

	return s
}

func (s *Session) displayLocked(now time.Time) Display {
	display := Display{
		State:        s.State,
		CurrRound:    s.CurrRoundIdx + 1,
		RoundsNum:    s.Config.RoundsNum,
		Average:      Placeholder,
		EstimatedEnd: Placeholder,
	}

	var elapsed time.Duration
	if !s.roundStart.IsZero() {
		elapsed = now.Sub(s.roundStart)
	}
	display.Elapsed = FormatClock(elapsed)

	if len(s.durations) == 0 {
		return display
	}

	var sum time.Duration
	for _, d := range s.durations {
		sum += d
	}
	avg := sum / time.Duration(len(s.durations))
	display.Average = FormatClock(avg)

	remaining := s.Config.RoundsNum - (s.CurrRoundIdx + 1)
	if remaining < 0 {
		remaining = 0
	}
	estimate := now.
		Add(time.Duration(remaining) * avg).
		Add(avg - elapsed)
	display.EstimatedEnd = estimate.Format("15:04")

	return display
}

// FormatClock renders a duration as mm:ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
