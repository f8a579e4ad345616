package resource

import (
	"github.com/enescakir/emoji"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// manage buttons
var (
	StartButtonText    = emoji.PlayButton.String() + " Start"
	PauseButtonText    = emoji.PauseButton.String() + " Pause"
	ResetButtonText    = emoji.CounterclockwiseArrowsButton.String() + " Reset"
	FinishButtonText   = emoji.ChequeredFlag.String() + " Finish round"
	TestModeButtonText = emoji.Wrench.String() + " Test mode"
	NotifyButtonText   = emoji.Bell.String() + " Enable notifications"
	StatsButtonText    = emoji.BarChart.String() + " Stats"
	RulesButtonText    = emoji.OpenBook.String() + " Rules"

	StartButton    = tgbotapi.NewKeyboardButton(StartButtonText)
	PauseButton    = tgbotapi.NewKeyboardButton(PauseButtonText)
	ResetButton    = tgbotapi.NewKeyboardButton(ResetButtonText)
	FinishButton   = tgbotapi.NewKeyboardButton(FinishButtonText)
	TestModeButton = tgbotapi.NewKeyboardButton(TestModeButtonText)
	NotifyButton   = tgbotapi.NewKeyboardButton(NotifyButtonText)
	StatsButton    = tgbotapi.NewKeyboardButton(StatsButtonText)
	RulesButton    = tgbotapi.NewKeyboardButton(RulesButtonText)
)

// alert modal actions
var (
	AlertDismissButtonText = emoji.CheckMarkButton.String() + " Dismiss"
	AlertSnoozeButtonText  = emoji.Zzz.String() + " Snooze 30s"
)

const (
	AlertDismissData = "alert:dismiss"
	AlertSnoozeData  = "alert:snooze"

	ConfirmYesText = "Yes"
	ConfirmNoText  = "No"

	CmdStart   = "/start"
	CmdRules   = "/rules"
	CmdDismiss = "/dismiss"
)
