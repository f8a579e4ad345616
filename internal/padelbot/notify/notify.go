package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/padel-games/padelbot/internal/database/subscriber/model"
	"github.com/padel-games/padelbot/internal/logging"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	DeleteMessage(config tgbotapi.DeleteMessageConfig) (tgbotapi.APIResponse, error)
}

// SubscriberStore persists the per-chat permission flag across restarts.
type SubscriberStore interface {
	Fetch(chatID int64) (model.Subscriber, error)
	Store(m model.Subscriber) error
}

func New(tg sender, subscribers SubscriberStore) *Notifier {
	return &Notifier{
		tg:          tg,
		subscribers: subscribers,
		live:        map[int64]int{},
	}
}

// Notifier posts push notifications to chats that granted permission. At most
// one notification is live per chat: a new one replaces the prior so repeats
// coalesce instead of stacking.
type Notifier struct {
	tg          sender
	subscribers SubscriberStore

	mtx sync.Mutex
	// chat id -> live notification message id
	live map[int64]int
}

// Grant records the permission flag for a chat and shows a confirmation
// notification. Must only be called from an explicit user action.
func (n *Notifier) Grant(ctx context.Context, chatID int64, username string) error {
	sub := model.Subscriber{
		ChatID:    chatID,
		Username:  username,
		Granted:   true,
		CreatedAt: time.Now(),
	}

	if err := n.subscribers.Store(sub); err != nil {
		return fmt.Errorf("store subscriber: %w", err)
	}

	return nil
}

func (n *Notifier) Granted(chatID int64) bool {
	sub, err := n.subscribers.Fetch(chatID)
	if err != nil {
		return false
	}

	return sub.Granted
}

// Notify posts a notification. A no-op when the chat never granted
// permission; delivery failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, chatID int64, title, body string) {
	logger := logging.FromContext(ctx).Named("notify")
	if !n.Granted(chatID) {
		return
	}

	n.mtx.Lock()
	prev, ok := n.live[chatID]
	n.mtx.Unlock()

	if ok {
		// replace the prior notification, repeats coalesce
		if _, err := n.tg.DeleteMessage(tgbotapi.NewDeleteMessage(chatID, prev)); err != nil {
			logger.Errorf("delete prior notification: %v", err)
		}
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("*%s*\n%s", title, body))
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := n.tg.Send(msg)
	if err != nil {
		logger.Errorf("send notification: %v", err)
		return
	}

	n.mtx.Lock()
	n.live[chatID] = sent.MessageID
	n.mtx.Unlock()
}

// Dismiss removes the live notification for a chat, if any. Notifications
// require explicit user interaction to go away.
func (n *Notifier) Dismiss(ctx context.Context, chatID int64) {
	logger := logging.FromContext(ctx).Named("notify")

	n.mtx.Lock()
	id, ok := n.live[chatID]
	delete(n.live, chatID)
	n.mtx.Unlock()

	if !ok {
		return
	}

	if _, err := n.tg.DeleteMessage(tgbotapi.NewDeleteMessage(chatID, id)); err != nil {
		logger.Errorf("delete notification: %v", err)
	}
}
