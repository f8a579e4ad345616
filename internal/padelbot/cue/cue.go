package cue

import (
	"context"
	"strings"
	"time"

	"github.com/enescakir/emoji"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/padel-games/padelbot/internal/logging"
	"github.com/padel-games/padelbot/internal/sched"
)

type Kind uint8

const (
	KindStart Kind = iota + 1
	KindPause
	KindFinish
	KindBuzzer
)

const (
	// second buzzer wave, raises the odds of being noticed on a muted chat
	buzzerEchoDelay = 1 * time.Second
	// reinforcing haptic cue for important patterns
	vibrateEchoDelay = 1500 * time.Millisecond

	buzzerPulses = 5
)

// Vibration patterns, millisecond on/off values. Patterns longer than three
// entries count as important and get a reinforcing echo.
var (
	PatternStart  = []int{100}
	PatternPause  = []int{150, 100, 150}
	PatternBuzzer = []int{200, 100, 200, 100, 400}
	PatternFinish = []int{100, 50, 100, 50, 200}
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier emits short chat cues for discrete timer events. Cues are
// best-effort: failures are logged and never propagated.
type Notifier interface {
	Tone(ctx context.Context, kind Kind)
	Vibrate(ctx context.Context, pattern []int)
}

var _ Notifier = (*ChatNotifier)(nil)

func NewChatNotifier(tg sender, chatID int64, scheduler *sched.Scheduler) *ChatNotifier {
	return &ChatNotifier{tg: tg, chatID: chatID, scheduler: scheduler}
}

// ChatNotifier posts cue messages into a single chat.
type ChatNotifier struct {
	tg        sender
	chatID    int64
	scheduler *sched.Scheduler
}

func (c *ChatNotifier) Tone(ctx context.Context, kind Kind) {
	switch kind {
	case KindStart:
		c.send(ctx, emoji.PlayButton.String())
	case KindPause:
		c.send(ctx, emoji.PauseButton.String())
	case KindFinish:
		// ascending three-step sequence
		c.send(ctx, emoji.MusicalNote.String()+" "+emoji.MusicalNotes.String()+" "+emoji.PartyPopper.String())
	case KindBuzzer:
		c.send(ctx, strings.Repeat(emoji.PoliceCarLight.String(), buzzerPulses))
		c.scheduler.After(buzzerEchoDelay, func() {
			c.send(ctx, strings.Repeat(emoji.PoliceCarLight.String(), buzzerPulses))
		})
	default:
		logging.FromContext(ctx).Named("cue").Errorf("unknown tone kind: %d", kind)
	}
}

func (c *ChatNotifier) Vibrate(ctx context.Context, pattern []int) {
	if len(pattern) == 0 {
		return
	}

	c.send(ctx, emoji.VibrationMode.String())
	if len(pattern) > 3 {
		c.scheduler.After(vibrateEchoDelay, func() {
			c.send(ctx, emoji.VibrationMode.String())
		})
	}
}

func (c *ChatNotifier) send(ctx context.Context, text string) {
	logger := logging.FromContext(ctx).Named("cue")
	if c.tg == nil {
		// chat transport unavailable, cue silently skipped
		return
	}

	msg := tgbotapi.NewMessage(c.chatID, text)
	if _, err := c.tg.Send(msg); err != nil {
		logger.Errorf("send cue: %v", err)
	}
}
