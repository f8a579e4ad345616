package padelbot

import (
	"time"

	"github.com/padel-games/padelbot/internal/database"
)

type Config struct {
	// Logging all requests and responses from telegram
	Debug bool `envconfig:"PADEL_DEBUG" default:"false"`

	// Number of items in the caches
	CacheSize int `envconfig:"PADEL_CACHE_SIZE" default:"1024"`

	// Port on which the health check is launched
	Port string `envconfig:"PADEL_PORT" default:"1234"`

	// profile port
	ProfPort string `envconfig:"PADEL_PROF_PORT" default:"8888"`

	// Telegram bot token
	BotToken string `envconfig:"PADEL_BOT_TOKEN"`

	// Rounds played in one tournament
	RoundsNum int `envconfig:"PADEL_ROUNDS_NUM" default:"8"`

	// Start new timers with the shortened test limit
	TestMode bool `envconfig:"PADEL_TEST_MODE" default:"false"`

	TgBotPollTimeout time.Duration `envconfig:"PADEL_TG_BOT_POLL_TIMEOUT" default:"60s"`

	Db database.Config
}
