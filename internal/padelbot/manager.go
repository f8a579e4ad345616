package padelbot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/padel-games/padelbot/internal/byteutil"
	statDb "github.com/padel-games/padelbot/internal/database/stat/database"
	statModel "github.com/padel-games/padelbot/internal/database/stat/model"
	tournamentDb "github.com/padel-games/padelbot/internal/database/tournament/database"
	tournamentModel "github.com/padel-games/padelbot/internal/database/tournament/model"
	"github.com/padel-games/padelbot/internal/logging"
	"github.com/padel-games/padelbot/internal/padelbot/alert"
	"github.com/padel-games/padelbot/internal/padelbot/cue"
	"github.com/padel-games/padelbot/internal/padelbot/notify"
	"github.com/padel-games/padelbot/internal/padelbot/resource"
	"github.com/padel-games/padelbot/internal/padelbot/timer"
	"github.com/padel-games/padelbot/internal/resourcestore"
	"github.com/padel-games/padelbot/internal/sched"
	"github.com/padel-games/padelbot/internal/util"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	DeleteMessage(config tgbotapi.DeleteMessageConfig) (tgbotapi.APIResponse, error)
	AnswerCallbackQuery(config tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) (tgbotapi.UpdatesChannel, error)
}

func NewManager(
	tg sender,
	config *Config,
	tournaments *tournamentDb.DB,
	stats *statDb.DB,
	notifier *notify.Notifier,
	resources *resourcestore.Store,
	scheduler *sched.Scheduler,
) *manager {
	return &manager{
		tg:          tg,
		config:      config,
		sessions:    map[int64]*timer.Session{},
		alerts:      map[int64]*alert.Alert{},
		displayMsg:  map[int64]int{},
		cmdCb:       map[int64]func(string) error{},
		tournaments: tournaments,
		stats:       stats,
		notifier:    notifier,
		resources:   resources,
		scheduler:   scheduler,
	}
}

type manager struct {
	mtx sync.RWMutex

	tg     sender
	config *Config

	// key: chatId owning the timer
	sessions map[int64]*timer.Session
	// key: chatId owning the alert
	alerts map[int64]*alert.Alert
	// key: chatId, value: message id of the live timer display
	displayMsg map[int64]int
	// confirmation callbacks
	cmdCb map[int64]func(string) error

	tournaments *tournamentDb.DB
	stats       *statDb.DB
	notifier    *notify.Notifier
	resources   *resourcestore.Store
	scheduler   *sched.Scheduler

	cancel func()
}

func (m *manager) Stop() {
	m.cancel()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	upd := tgbotapi.NewUpdate(0)
	upd.Timeout = int(m.config.TgBotPollTimeout.Seconds())
	updates, err := m.tg.GetUpdatesChan(upd)
	if err != nil {
		return fmt.Errorf("tg get updates chan: %w", err)
	}

	if err := m.deserialize(ctx); err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}

	wg := &sync.WaitGroup{}
	poolWorkerNum := runtime.NumCPU()
	wg.Add(poolWorkerNum)

	for i := 0; i < poolWorkerNum; i++ {
		go m.pool(ctx, wg, updates)
	}

	wg.Wait()
	m.shutdown(ctx)
	return nil
}

func (m *manager) pool(ctx context.Context, wg *sync.WaitGroup, updCh tgbotapi.UpdatesChannel) {
	defer wg.Done()
	logger := logging.FromContext(ctx).Named("manager.pool")
	for {
		select {
		case update := <-updCh:
			if update.Message != nil {
				if update.Message.Chat.IsGroup() || update.Message.Chat.IsSuperGroup() {
					msg := tgbotapi.NewMessage(update.Message.Chat.ID, resource.TextChatNotAllowed)
					if _, err := m.tg.Send(msg); err != nil {
						logger.Errorf("send msg: %v", err)
					}
					continue
				}
				if err := m.handleCommand(ctx, update); err != nil {
					logger.Errorf("handle command query: %v", err)
				}
			}
			if update.CallbackQuery != nil {
				if err := m.handleCallbackQuery(ctx, update); err != nil {
					logger.Errorf("handle callback query: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) handleCommand(ctx context.Context, upd tgbotapi.Update) error {
	chatID := upd.Message.Chat.ID

	switch upd.Message.Text {
	case resource.CmdStart:
		if err := m.handleStartCmd(ctx, upd); err != nil {
			return fmt.Errorf("handle start cmd: %w", err)
		}
	case resource.CmdRules, resource.RulesButtonText:
		if err := m.handleRulesButton(ctx, chatID); err != nil {
			return fmt.Errorf("handle rules cmd: %w", err)
		}
	case resource.CmdDismiss:
		if err := m.handleDismissCmd(ctx, chatID); err != nil {
			return fmt.Errorf("handle dismiss cmd: %w", err)
		}
	case resource.StartButtonText:
		m.session(ctx, upd).Start(ctx)
	case resource.PauseButtonText:
		m.session(ctx, upd).Pause(ctx)
	case resource.ResetButtonText:
		m.session(ctx, upd).Reset(ctx)
	case resource.FinishButtonText:
		m.session(ctx, upd).Finish(ctx)
	case resource.TestModeButtonText:
		if err := m.handleTestModeButton(ctx, upd); err != nil {
			return fmt.Errorf("handle test mode button: %w", err)
		}
	case resource.NotifyButtonText:
		if err := m.handleNotifyButton(ctx, upd); err != nil {
			return fmt.Errorf("handle notify button: %w", err)
		}
	case resource.StatsButtonText:
		if err := m.handleStatsButton(ctx, upd); err != nil {
			return fmt.Errorf("handle stats button: %w", err)
		}
	default:
		if cb, ok := m.callback(chatID); ok {
			if err := cb(upd.Message.Text); err != nil {
				return fmt.Errorf("execute cb: %w", err)
			}
		}
	}

	return nil
}

func (m *manager) handleCallbackQuery(ctx context.Context, upd tgbotapi.Update) error {
	query := upd.CallbackQuery
	chatID := query.Message.Chat.ID

	a, ok := m.alert(chatID)
	if !ok {
		return nil
	}

	switch query.Data {
	case resource.AlertDismissData:
		a.Dismiss(ctx)
		m.notifier.Dismiss(ctx, chatID)
		if _, err := m.tg.AnswerCallbackQuery(tgbotapi.NewCallback(query.ID, "Alert dismissed")); err != nil {
			return fmt.Errorf("answer callback: %w", err)
		}
	case resource.AlertSnoozeData:
		a.Snooze(ctx)
		if _, err := m.tg.AnswerCallbackQuery(tgbotapi.NewCallback(query.ID, "Snoozed")); err != nil {
			return fmt.Errorf("answer callback: %w", err)
		}
	}

	return nil
}

func (m *manager) handleStartCmd(ctx context.Context, upd tgbotapi.Update) error {
	chatID := upd.Message.Chat.ID

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(resource.TextGreetingMsg, upd.Message.From.FirstName))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(resource.StartButton, resource.PauseButton, resource.FinishButton),
		tgbotapi.NewKeyboardButtonRow(resource.ResetButton, resource.TestModeButton),
		tgbotapi.NewKeyboardButtonRow(resource.StatsButton, resource.RulesButton, resource.NotifyButton),
	)
	if _, err := m.tg.Send(msg); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	m.session(ctx, upd)

	created := tgbotapi.NewMessage(chatID, resource.TextTimerCreatedMsg)
	created.ParseMode = tgbotapi.ModeMarkdown
	if _, err := m.tg.Send(created); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	return nil
}

func (m *manager) handleRulesButton(ctx context.Context, chatID int64) error {
	body, err := m.resources.Get(ctx, "texts/rules")
	if err != nil {
		return fmt.Errorf("get rules resource: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, byteutil.BytesToString(body))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := m.tg.Send(msg); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	return nil
}

// handleDismissCmd is the backdrop path: dismissing outside the modal
// buttons asks for a confirmation first.
func (m *manager) handleDismissCmd(ctx context.Context, chatID int64) error {
	a, ok := m.alert(chatID)
	if !ok || !a.Pending() {
		msg := tgbotapi.NewMessage(chatID, resource.TextNoActiveAlertMsg)
		if _, err := m.tg.Send(msg); err != nil {
			return fmt.Errorf("send msg: %w", err)
		}
		return nil
	}

	if err := m.sendConfirm(chatID, resource.TextConfirmDismissMsg); err != nil {
		return fmt.Errorf("send confirm: %w", err)
	}

	m.registerCallback(chatID, func(answer string) error {
		switch answer {
		case resource.ConfirmYesText:
			m.resetCallback(chatID)
			a.Dismiss(ctx)
			m.notifier.Dismiss(ctx, chatID)
		case resource.ConfirmNoText:
			m.resetCallback(chatID)
			msg := tgbotapi.NewMessage(chatID, resource.TextDismissCancelledMsg)
			if _, err := m.tg.Send(msg); err != nil {
				return fmt.Errorf("send msg: %w", err)
			}
		default:
			// keep the callback armed until a real answer arrives
			msg := tgbotapi.NewMessage(chatID, resource.TextConfirmUnknownMsg)
			if _, err := m.tg.Send(msg); err != nil {
				return fmt.Errorf("send msg: %w", err)
			}
		}
		return nil
	})

	return nil
}

func (m *manager) handleTestModeButton(ctx context.Context, upd tgbotapi.Update) error {
	chatID := upd.Message.Chat.ID
	session := m.session(ctx, upd)

	if err := m.sendConfirm(chatID, resource.TextModeSwitchConfirmMsg); err != nil {
		return fmt.Errorf("send confirm: %w", err)
	}

	m.registerCallback(chatID, func(answer string) error {
		switch answer {
		case resource.ConfirmYesText:
			m.resetCallback(chatID)

			text := resource.TextModeNormalMsg
			if session.ToggleMode(ctx) {
				text = resource.TextModeTestMsg
			}

			msg := tgbotapi.NewMessage(chatID, text)
			if _, err := m.tg.Send(msg); err != nil {
				return fmt.Errorf("send msg: %w", err)
			}
		case resource.ConfirmNoText:
			m.resetCallback(chatID)
			msg := tgbotapi.NewMessage(chatID, resource.TextModeSwitchCancelled)
			if _, err := m.tg.Send(msg); err != nil {
				return fmt.Errorf("send msg: %w", err)
			}
		default:
			msg := tgbotapi.NewMessage(chatID, resource.TextConfirmUnknownMsg)
			if _, err := m.tg.Send(msg); err != nil {
				return fmt.Errorf("send msg: %w", err)
			}
		}
		return nil
	})

	return nil
}

func (m *manager) handleNotifyButton(ctx context.Context, upd tgbotapi.Update) error {
	chatID := upd.Message.Chat.ID

	if err := m.notifier.Grant(ctx, chatID, upd.Message.From.UserName); err != nil {
		return fmt.Errorf("grant: %w", err)
	}

	m.notifier.Notify(ctx, chatID, resource.TextNotifyGrantedTitle, resource.TextNotifyGrantedBody)
	return nil
}

func (m *manager) handleStatsButton(ctx context.Context, upd tgbotapi.Update) error {
	chatID := upd.Message.Chat.ID
	session := m.session(ctx, upd)

	agg, err := m.stats.FetchAggregation(session.Code)
	if err != nil && !errors.Is(err, statDb.EntryNotFoundErr) {
		return fmt.Errorf("fetch aggregation: %w", err)
	}

	text := resource.TextStatsEmptyMsg
	if agg.Count > 0 {
		text = renderStats(agg)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := m.tg.Send(msg); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	return nil
}

func (m *manager) sendConfirm(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(resource.ConfirmYesText),
			tgbotapi.NewKeyboardButton(resource.ConfirmNoText),
		),
	)
	if _, err := m.tg.Send(msg); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	return nil
}

// session returns the timer session for a chat, building it on first use.
func (m *manager) session(ctx context.Context, upd tgbotapi.Update) *timer.Session {
	chatID := upd.Message.Chat.ID

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if session, ok := m.sessions[chatID]; ok {
		return session
	}

	logger := logging.FromContext(ctx).Named("manager")

	code, err := util.GenerateCodeHash()
	if err != nil {
		logger.Errorf("generate code: %v", err)
		code = chatID
	}

	session := timer.NewSession(m.sessionConfig(ctx, code, chatID, upd.Message.From.FirstName))
	m.sessions[chatID] = session
	m.alerts[chatID] = alert.New(alert.Config{
		ChatID:    chatID,
		Tg:        m.tg,
		Cue:       cue.NewChatNotifier(m.tg, chatID, m.scheduler),
		Scheduler: m.scheduler,
	})

	logger.Infof("timer session created, code: %d, chat: %d", code, chatID)
	return session
}

func (m *manager) sessionConfig(ctx context.Context, code, chatID int64, authorName string) timer.Config {
	return timer.Config{
		Code:       code,
		ChatID:     chatID,
		AuthorName: authorName,
		RoundsNum:  m.config.RoundsNum,
		TestMode:   m.config.TestMode,
		Cue:        cue.NewChatNotifier(m.tg, chatID, m.scheduler),
		Scheduler:  m.scheduler,
		ViewFn: func(d timer.Display) {
			m.renderView(ctx, chatID, d)
		},
		AlertFn: func(testMode bool) {
			m.raiseAlert(ctx, chatID, testMode)
		},
		PersistFn: func(roundIdx int, duration time.Duration) {
			m.persistRound(ctx, code, roundIdx, duration)
		},
	}
}

func (m *manager) alert(chatID int64) (*alert.Alert, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	a, ok := m.alerts[chatID]
	return a, ok
}

// renderView updates the live timer display, editing the same message on
// every tick.
func (m *manager) renderView(ctx context.Context, chatID int64, d timer.Display) {
	logger := logging.FromContext(ctx).Named("manager.renderView")
	text := renderDisplay(d)

	m.mtx.RLock()
	messageID, ok := m.displayMsg[chatID]
	m.mtx.RUnlock()

	if ok {
		msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := m.tg.Send(msg); err != nil {
			logger.Errorf("update display msg: %v", err)
		}
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := m.tg.Send(msg)
	if err != nil {
		logger.Errorf("send display msg: %v", err)
		return
	}

	m.mtx.Lock()
	if _, ok := m.displayMsg[chatID]; ok {
		// a concurrent tick won the first render, drop the duplicate
		m.mtx.Unlock()
		if _, err := m.tg.DeleteMessage(tgbotapi.NewDeleteMessage(chatID, sent.MessageID)); err != nil {
			logger.Errorf("delete duplicate display msg: %v", err)
		}
		return
	}
	m.displayMsg[chatID] = sent.MessageID
	m.mtx.Unlock()
}

func (m *manager) raiseAlert(ctx context.Context, chatID int64, testMode bool) {
	if a, ok := m.alert(chatID); ok {
		a.Raise(ctx, testMode)
	}

	m.notifier.Notify(ctx, chatID, resource.TextAlertNotifyTitle, resource.TextAlertNotifyBody)
}

func (m *manager) persistRound(ctx context.Context, code int64, roundIdx int, duration time.Duration) {
	logger := logging.FromContext(ctx).Named("manager.persistRound")

	if err := m.stats.Add(statModel.NewRoundStat(code, roundIdx, duration)); err != nil {
		logger.Errorf("stat db add: %v", err)
	}
}

func (m *manager) registerCallback(chatID int64, fn func(string) error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.cmdCb[chatID] = fn
}

func (m *manager) callback(chatID int64) (func(string) error, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	cb, ok := m.cmdCb[chatID]
	return cb, ok
}

func (m *manager) resetCallback(chatID int64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.cmdCb, chatID)
}

func (m *manager) serialize(session *timer.Session) error {
	snap := session.Snapshot()
	state := tournamentModel.State{
		Code:            snap.Code,
		ChatID:          snap.ChatID,
		AuthorName:      snap.AuthorName,
		RoundsNum:       snap.RoundsNum,
		State:           snap.State,
		CurrRoundIdx:    snap.CurrRoundIdx,
		TestMode:        snap.TestMode,
		RoundStart:      snap.RoundStart,
		TournamentStart: snap.TournamentStart,
		Durations:       snap.Durations,
		CreatedAt:       snap.CreatedAt,
	}

	if err := m.tournaments.Add(state); err != nil {
		return fmt.Errorf("tournament db add: %w", err)
	}

	return nil
}

func (m *manager) deserialize(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("manager.deserialize")

	states, err := m.tournaments.FetchAll()
	if err != nil && !errors.Is(err, tournamentDb.EntryNotFoundErr) {
		return fmt.Errorf("tournament db fetch all: %w", err)
	}

	m.mtx.Lock()
	for _, state := range states {
		snap := timer.Snap{
			Code:            state.Code,
			ChatID:          state.ChatID,
			AuthorName:      state.AuthorName,
			RoundsNum:       state.RoundsNum,
			State:           state.State,
			CurrRoundIdx:    state.CurrRoundIdx,
			TestMode:        state.TestMode,
			RoundStart:      state.RoundStart,
			TournamentStart: state.TournamentStart,
			Durations:       state.Durations,
			CreatedAt:       state.CreatedAt,
		}

		session := timer.NewFromSnapshot(snap, m.sessionConfig(ctx, state.Code, state.ChatID, state.AuthorName))
		m.sessions[state.ChatID] = session
		m.alerts[state.ChatID] = alert.New(alert.Config{
			ChatID:    state.ChatID,
			Tg:        m.tg,
			Cue:       cue.NewChatNotifier(m.tg, state.ChatID, m.scheduler),
			Scheduler: m.scheduler,
		})
		logger.Infof("timer session restored, code: %d, chat: %d", state.Code, state.ChatID)
	}
	m.mtx.Unlock()

	if len(states) > 0 {
		if err := m.tournaments.Clean(); err != nil {
			if !errors.Is(err, tournamentDb.BucketNotFoundErr) {
				return fmt.Errorf("tournament db clean: %w", err)
			}
		}
	}

	return nil
}

func (m *manager) shutdown(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("manager.shutdown")

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	for chatID, session := range m.sessions {
		if err := m.serialize(session); err != nil {
			logger.Errorf("serialize session, chat %d: %v", chatID, err)
			continue
		}
		session.Stop()
	}

	logger.Infof("manager closed, %d sessions serialized", len(m.sessions))
}
