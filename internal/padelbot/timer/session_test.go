package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/padel-games/padelbot/internal/padelbot/cue"
	"github.com/padel-games/padelbot/internal/sched"
)

type recordingCue struct {
	mtx      sync.Mutex
	tones    []cue.Kind
	vibrates [][]int
}

func (r *recordingCue) Tone(ctx context.Context, kind cue.Kind) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.tones = append(r.tones, kind)
}

func (r *recordingCue) Vibrate(ctx context.Context, pattern []int) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.vibrates = append(r.vibrates, pattern)
}

func (r *recordingCue) count(kind cue.Kind) int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	var n int
	for _, k := range r.tones {
		if k == kind {
			n++
		}
	}
	return n
}

type persistCall struct {
	roundIdx int
	duration time.Duration
}

type testEnv struct {
	clock     *clockwork.FakeClock
	session   *Session
	cue       *recordingCue
	views     chan Display
	alerts    chan bool
	persisted chan persistCall
}

func newTestEnv(t *testing.T, testMode bool, roundsNum int) *testEnv {
	t.Helper()

	env := &testEnv{
		clock:     clockwork.NewFakeClock(),
		cue:       &recordingCue{},
		views:     make(chan Display, 64),
		alerts:    make(chan bool, 8),
		persisted: make(chan persistCall, 8),
	}

	env.session = NewSession(Config{
		Code:      42,
		ChatID:    7,
		RoundsNum: roundsNum,
		TestMode:  testMode,
		Cue:       env.cue,
		Scheduler: sched.New(env.clock),
		ViewFn: func(d Display) {
			env.views <- d
		},
		AlertFn: func(testMode bool) {
			env.alerts <- testMode
		},
		PersistFn: func(roundIdx int, duration time.Duration) {
			env.persisted <- persistCall{roundIdx: roundIdx, duration: duration}
		},
	})

	return env
}

func (env *testEnv) view(t *testing.T) Display {
	t.Helper()
	select {
	case d := <-env.views:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("no view update")
		return Display{}
	}
}

// advances one tick interval and waits for the resulting render
func (env *testEnv) tick(t *testing.T) Display {
	t.Helper()
	env.clock.Advance(tickInterval)
	return env.view(t)
}

func TestStartPauseResumeElapsedIsWallClock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false, 10)
	ctx := context.Background()

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)

	var last Display
	for i := 0; i < 5; i++ {
		last = env.tick(t)
	}
	if last.Elapsed != "00:05" {
		t.Fatalf("expected 00:05, got %s", last.Elapsed)
	}

	env.session.Pause(ctx)
	env.view(t)
	if env.session.GetState() != StateKindPaused {
		t.Fatal("expected paused state")
	}

	// pause cancels the tick but not the wall clock
	env.clock.Advance(10 * time.Second)

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)

	last = env.tick(t)
	if last.Elapsed != "00:16" {
		t.Fatalf("elapsed must span the pause: expected 00:16, got %s", last.Elapsed)
	}
}

func TestPauseCancelsTick(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false, 10)
	ctx := context.Background()

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)
	env.tick(t)

	env.session.Pause(ctx)
	env.view(t)

	env.clock.Advance(5 * time.Second)
	select {
	case d := <-env.views:
		t.Fatalf("unexpected render while paused: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFinishRecordsExactlyOneDuration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false, 10)
	ctx := context.Background()

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)
	for i := 0; i < 3; i++ {
		env.tick(t)
	}

	env.session.Finish(ctx)
	env.view(t)

	select {
	case p := <-env.persisted:
		if p.roundIdx != 0 || p.duration != 3*time.Second {
			t.Fatalf("unexpected persist call: %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("persist hook not called")
	}

	// finishing again without a running round records nothing
	env.session.Finish(ctx)
	select {
	case p := <-env.persisted:
		t.Fatalf("unexpected second persist call: %+v", p)
	case <-time.After(100 * time.Millisecond):
	}

	if got := env.session.Durations(); len(got) != 1 || got[0] != 3*time.Second {
		t.Fatalf("unexpected durations: %v", got)
	}
	if env.session.CurrRound() != 1 {
		t.Fatalf("expected round index advanced to 1, got %d", env.session.CurrRound())
	}
}

func TestAverageIsMeanOfRecordedDurations(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false, 10)
	ctx := context.Background()

	// no rounds recorded yet: placeholder
	env.session.Reset(ctx)
	if d := env.view(t); d.Average != Placeholder {
		t.Fatalf("expected placeholder average, got %s", d.Average)
	}

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)
	for i := 0; i < 3; i++ {
		env.tick(t)
	}
	env.session.Finish(ctx)
	env.view(t)
	<-env.persisted

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)
	for i := 0; i < 5; i++ {
		env.tick(t)
	}
	env.session.Finish(ctx)
	d := env.view(t)
	<-env.persisted

	if d.Average != "00:04" {
		t.Fatalf("expected mean 00:04, got %s", d.Average)
	}
	if d.EstimatedEnd == Placeholder {
		t.Fatal("expected an estimated finish time")
	}
}

func TestAlertRaisedExactlyOnceAtLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, true, 10) // test mode, limit 15s
	ctx := context.Background()

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)

	for i := 0; i < 14; i++ {
		env.tick(t)
		select {
		case <-env.alerts:
			t.Fatalf("alert raised early at tick %d", i+1)
		default:
		}
	}

	env.tick(t)
	select {
	case testMode := <-env.alerts:
		if !testMode {
			t.Fatal("expected test-mode alert")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("alert not raised at the limit")
	}

	if env.cue.count(cue.KindBuzzer) != 1 {
		t.Fatalf("expected one buzzer tone, got %d", env.cue.count(cue.KindBuzzer))
	}

	// past the limit the equality check never matches again
	for i := 0; i < 3; i++ {
		env.tick(t)
	}
	select {
	case <-env.alerts:
		t.Fatal("alert raised twice for one crossing")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestToggleModeResetsClock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false, 10)
	ctx := context.Background()

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)
	env.tick(t)

	if testMode := env.session.ToggleMode(ctx); !testMode {
		t.Fatal("expected test mode after toggle")
	}
	d := env.view(t)

	if env.session.GetState() != StateKindIdle {
		t.Fatal("expected idle state after mode switch")
	}
	if d.Elapsed != "00:00" {
		t.Fatalf("expected zeroed display, got %s", d.Elapsed)
	}
	if env.session.LimitSeconds() != TestLimitSeconds {
		t.Fatalf("expected limit %d, got %d", TestLimitSeconds, env.session.LimitSeconds())
	}
}

func TestStartTonesAndVibration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, false, 10)
	ctx := context.Background()

	env.session.Start(ctx)
	env.view(t)

	if env.cue.count(cue.KindStart) != 1 {
		t.Fatal("expected start tone")
	}
	env.cue.mtx.Lock()
	if len(env.cue.vibrates) != 1 || len(env.cue.vibrates[0]) != 1 {
		t.Fatalf("expected single short vibration, got %v", env.cue.vibrates)
	}
	env.cue.mtx.Unlock()

	env.session.Pause(ctx)
	env.view(t)
	if env.cue.count(cue.KindPause) != 1 {
		t.Fatal("expected pause tone")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, true, 8)
	ctx := context.Background()

	env.session.Start(ctx)
	env.view(t)
	env.clock.BlockUntil(1)
	for i := 0; i < 3; i++ {
		env.tick(t)
	}
	env.session.Finish(ctx)
	env.view(t)
	<-env.persisted

	env.session.Start(ctx)
	env.view(t)

	snap := env.session.Snapshot()
	if snap.State != StateKindRunning {
		t.Fatalf("expected running snapshot, got %d", snap.State)
	}

	restored := NewFromSnapshot(snap, env.session.Config)
	if restored.GetState() != StateKindPaused {
		t.Fatal("restored running session must come back paused")
	}
	if restored.CurrRound() != 1 {
		t.Fatalf("expected round index 1, got %d", restored.CurrRound())
	}
	if got := restored.Durations(); len(got) != 1 || got[0] != 3*time.Second {
		t.Fatalf("unexpected restored durations: %v", got)
	}
	if !restored.TestMode {
		t.Fatal("expected test mode preserved")
	}
}

func TestFormatClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{60 * time.Second, "01:00"},
		{10 * time.Minute, "10:00"},
		{-time.Second, "00:00"},
	}

	for _, tc := range cases {
		if got := FormatClock(tc.in); got != tc.want {
			t.Errorf("FormatClock(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
