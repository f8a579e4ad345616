package resource

import "github.com/enescakir/emoji"

const (
	ProjectName    = "padelbot"
	ProjectVersion = "1.1.0"
	GithubUrl      = "https://github.com/padel-games/padelbot"
)

const Graffiti = `
                _      _ _           _
 _ __   __ _ __| | ___| | |__   ___ | |_
| '_ \ / _' / _' |/ _ \ | '_ \ / _ \| __|
| |_) | (_| | (_| |  __/ | |_) | (_) | |_
| .__/ \__,_|\__,_|\___|_|_.__/ \___/ \__|
|_|
`

const GreetingCLI = "%s %s — tournament round timer\nproject: %s\n\n"

// manage text messages
var (
	TextGreetingMsg = emoji.Tennis.String() + " Hi, %s\n\n" +
		"This is @padeltimerbot " + emoji.Robot.String() + " — a round timer for padel tournaments. " +
		"It keeps the round clock, nags everyone when the time limit is up and " +
		"estimates when the tournament will finish.\n\n" +
		"*Commands:*\n" +
		"/start - install the bot and show this help\n" +
		"/rules - how the timer works\n" +
		"/dismiss - dismiss an active time-limit alert\n\n" +
		"Use the keyboard buttons to drive the round clock " + emoji.Stopwatch.String()

	TextChatNotAllowed = "The timer works in a direct chat, not in groups"

	TextModeSwitchConfirmMsg  = emoji.Wrench.String() + " Switch timer mode? The round clock will be reset"
	TextModeNormalMsg         = emoji.CheckMarkButton.String() + " Normal mode: round limit 10:00"
	TextModeTestMsg           = emoji.Wrench.String() + " Test mode: round limit 00:15"
	TextModeSwitchCancelled   = "Mode switch cancelled"
	TextConfirmDismissMsg     = "Dismiss the active alert?"
	TextDismissCancelledMsg   = "The alert stays on"
	TextNoActiveAlertMsg      = "No active alert"
	TextConfirmUnknownMsg     = "Answer Yes or No"

	TextAlertModalMsg = emoji.PoliceCarLight.String() + " *Round time limit reached!*\n" +
		"Wrap up the rally and rotate courts"
	TextAlertSnoozedToastMsg = emoji.Zzz.String() + " Snoozed, the alert comes back in 30 seconds"
	TextAlertSnoozeLimitMsg  = emoji.Prohibited.String() + " Snooze limit reached, the alert is dismissed"

	TextNotifyGrantedTitle = "Notifications enabled"
	TextNotifyGrantedBody  = "You will get a push when a round hits the limit " + emoji.Bell.String()
	TextAlertNotifyTitle   = "Round time limit reached"
	TextAlertNotifyBody    = "Open the chat to dismiss or snooze the alert"

	TextTimerCreatedMsg = emoji.Unicorn.String() + " Tournament timer is ready.\n\n" +
		"Press " + emoji.PlayButton.String() + " *Start* when the first round begins"

	TextStatsEmptyMsg = "No finished rounds yet"

	TextRulesMsg = emoji.OpenBook.String() + " *How the timer works*\n\n" +
		emoji.PlayButton.String() + " *Start* begins the round clock. Pausing stops the display " +
		"tick only: the clock keeps counting from the original start, so a paused round " +
		"still ages.\n" +
		emoji.ChequeredFlag.String() + " *Finish round* records the duration and moves to the next round.\n" +
		emoji.PoliceCarLight.String() + " When a round hits the limit (10:00, or 00:15 in test mode) the bot " +
		"nags every 3 seconds until the alert is dismissed. Snoozing pushes it back 30 " +
		"seconds, at most 3 times.\n" +
		emoji.BarChart.String() + " The average round duration drives the estimated tournament finish time."

	TextHelpMsg = "Keyboard: Start, Pause, Reset, Finish round, Test mode, Stats, Rules.\n" +
		"Commands: /start, /rules, /dismiss"
)
