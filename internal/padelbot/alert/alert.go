package alert

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/padel-games/padelbot/internal/logging"
	"github.com/padel-games/padelbot/internal/padelbot/cue"
	"github.com/padel-games/padelbot/internal/padelbot/resource"
	"github.com/padel-games/padelbot/internal/sched"
)

// MaxSnoozes is how often an alert may be pushed back before it is forced
// closed.
const MaxSnoozes = 3

const (
	repeatInterval = 3 * time.Second
	snoozeDelay    = 30 * time.Second
	toastTTL       = 4 * time.Second
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	DeleteMessage(config tgbotapi.DeleteMessageConfig) (tgbotapi.APIResponse, error)
}

type Config struct {
	ChatID    int64
	Tg        sender
	Cue       cue.Notifier
	Scheduler *sched.Scheduler
}

func New(config Config) *Alert {
	return &Alert{config: config}
}

// Alert is the escalating time-limit nag: a modal message with dismiss and
// snooze actions, re-buzzing every few seconds until someone reacts.
type Alert struct {
	config Config

	mtx         sync.Mutex
	active      bool
	testMode    bool
	snoozeCount int
	modalID     int
	repeat      *sched.Task
	resched     *sched.Task
}

// Raise tears down any previous alert and shows a fresh modal. The buzzer
// fires immediately and then every repeatInterval until dismissed.
func (a *Alert) Raise(ctx context.Context, testMode bool) {
	a.mtx.Lock()
	// the previous repeat handle must go first; leaking it would double the
	// tone rate
	a.teardownLocked(ctx)
	a.testMode = testMode
	a.active = true
	a.modalID = a.sendModal(ctx)
	a.repeat = a.config.Scheduler.Every(repeatInterval, func() {
		a.config.Cue.Tone(ctx, cue.KindBuzzer)
		a.config.Cue.Vibrate(ctx, cue.PatternBuzzer)
	})
	a.mtx.Unlock()

	logging.FromContext(ctx).Named("alert").Infof("alert raised, chat: %d", a.config.ChatID)
	a.config.Cue.Tone(ctx, cue.KindBuzzer)
}

// Dismiss closes the alert and resets the snooze counter.
func (a *Alert) Dismiss(ctx context.Context) {
	a.mtx.Lock()
	a.teardownLocked(ctx)
	a.active = false
	a.snoozeCount = 0
	a.mtx.Unlock()

	logging.FromContext(ctx).Named("alert").Infof("alert dismissed, chat: %d", a.config.ChatID)
}

// Snooze pushes the alert back by snoozeDelay. The fourth attempt forces a
// dismissal with a terminal notice instead of rescheduling.
func (a *Alert) Snooze(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("alert")

	a.mtx.Lock()
	if !a.active {
		a.mtx.Unlock()
		return
	}

	a.snoozeCount++
	if a.snoozeCount > MaxSnoozes {
		a.teardownLocked(ctx)
		a.active = false
		a.snoozeCount = 0
		a.mtx.Unlock()

		logger.Infof("snooze limit hit, forcing dismissal, chat: %d", a.config.ChatID)
		a.send(ctx, resource.TextAlertSnoozeLimitMsg)
		return
	}

	testMode := a.testMode
	count := a.snoozeCount
	a.teardownLocked(ctx)
	a.active = false

	toastID := a.send(ctx, resource.TextAlertSnoozedToastMsg)
	if toastID != 0 {
		a.config.Scheduler.After(toastTTL, func() {
			a.deleteMessage(ctx, toastID)
		})
	}

	a.resched = a.config.Scheduler.After(snoozeDelay, func() {
		a.Raise(ctx, testMode)
	})
	a.mtx.Unlock()

	logger.Infof("alert snoozed (%d/%d), chat: %d", count, MaxSnoozes, a.config.ChatID)
}

func (a *Alert) Active() bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.active
}

// Pending reports whether the alert is live or waiting out a snooze.
func (a *Alert) Pending() bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.active || a.resched != nil
}

func (a *Alert) SnoozeCount() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.snoozeCount
}

// teardownLocked cancels the repeat and any pending re-raise and removes the
// modal message.
func (a *Alert) teardownLocked(ctx context.Context) {
	if a.repeat != nil {
		a.repeat.Cancel()
		a.repeat = nil
	}
	if a.resched != nil {
		a.resched.Cancel()
		a.resched = nil
	}
	if a.modalID != 0 {
		a.deleteMessage(ctx, a.modalID)
		a.modalID = 0
	}
}

func (a *Alert) sendModal(ctx context.Context) int {
	logger := logging.FromContext(ctx).Named("alert")
	if a.config.Tg == nil {
		return 0
	}

	msg := tgbotapi.NewMessage(a.config.ChatID, resource.TextAlertModalMsg)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(resource.AlertDismissButtonText, resource.AlertDismissData),
			tgbotapi.NewInlineKeyboardButtonData(resource.AlertSnoozeButtonText, resource.AlertSnoozeData),
		),
	)

	sent, err := a.config.Tg.Send(msg)
	if err != nil {
		logger.Errorf("send alert modal: %v", err)
		return 0
	}

	return sent.MessageID
}

func (a *Alert) send(ctx context.Context, text string) int {
	logger := logging.FromContext(ctx).Named("alert")
	if a.config.Tg == nil {
		return 0
	}

	msg := tgbotapi.NewMessage(a.config.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := a.config.Tg.Send(msg)
	if err != nil {
		logger.Errorf("send msg: %v", err)
		return 0
	}

	return sent.MessageID
}

func (a *Alert) deleteMessage(ctx context.Context, messageID int) {
	if a.config.Tg == nil {
		return
	}

	if _, err := a.config.Tg.DeleteMessage(tgbotapi.NewDeleteMessage(a.config.ChatID, messageID)); err != nil {
		logging.FromContext(ctx).Named("alert").Errorf("delete msg: %v", err)
	}
}
