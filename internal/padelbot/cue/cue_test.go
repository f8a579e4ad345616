package cue

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/jonboulle/clockwork"
	"github.com/padel-games/padelbot/internal/sched"
)

type captureSender struct {
	mtx  sync.Mutex
	sent []tgbotapi.Chattable
}

func (c *captureSender) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.sent = append(c.sent, msg)
	return tgbotapi.Message{}, nil
}

func (c *captureSender) len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.sent)
}

func (c *captureSender) waitLen(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for c.len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d cues, got %d", n, c.len())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestToneStartSingleCue(t *testing.T) {
	t.Parallel()

	tg := &captureSender{}
	clock := clockwork.NewFakeClock()
	n := NewChatNotifier(tg, 1, sched.New(clock))

	n.Tone(context.Background(), KindStart)
	if tg.len() != 1 {
		t.Fatalf("expected 1 cue, got %d", tg.len())
	}
}

func TestToneBuzzerSecondWave(t *testing.T) {
	t.Parallel()

	tg := &captureSender{}
	clock := clockwork.NewFakeClock()
	n := NewChatNotifier(tg, 1, sched.New(clock))

	n.Tone(context.Background(), KindBuzzer)
	if tg.len() != 1 {
		t.Fatalf("expected 1 immediate cue, got %d", tg.len())
	}

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	tg.waitLen(t, 2)
}

func TestVibrateImportantPatternEcho(t *testing.T) {
	t.Parallel()

	tg := &captureSender{}
	clock := clockwork.NewFakeClock()
	n := NewChatNotifier(tg, 1, sched.New(clock))

	n.Vibrate(context.Background(), PatternBuzzer)
	if tg.len() != 1 {
		t.Fatalf("expected 1 immediate cue, got %d", tg.len())
	}

	clock.BlockUntil(1)
	clock.Advance(1500 * time.Millisecond)
	tg.waitLen(t, 2)
}

func TestVibrateShortPatternNoEcho(t *testing.T) {
	t.Parallel()

	tg := &captureSender{}
	clock := clockwork.NewFakeClock()
	n := NewChatNotifier(tg, 1, sched.New(clock))

	n.Vibrate(context.Background(), PatternPause)
	time.Sleep(10 * time.Millisecond)
	if tg.len() != 1 {
		t.Fatalf("expected exactly 1 cue, got %d", tg.len())
	}
}

func TestVibrateUnsupportedNoops(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	n := NewChatNotifier(nil, 1, sched.New(clock))

	// must not panic without a transport
	n.Vibrate(context.Background(), PatternStart)
	n.Tone(context.Background(), KindPause)
}
