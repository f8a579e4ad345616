package model

import "time"

// State is the serialized image of a live timer session, written on shutdown
// and restored on startup.
type State struct {
	Code       int64  `json:"code"`
	ChatID     int64  `json:"chatId"`
	AuthorName string `json:"authorName"`
	RoundsNum  int    `json:"roundsNum"`

	State        uint8 `json:"state"`
	CurrRoundIdx int   `json:"currRoundIdx"`
	TestMode     bool  `json:"testMode"`

	RoundStart      time.Time             `json:"roundStart"`
	TournamentStart time.Time             `json:"tournamentStart"`
	Durations       map[int]time.Duration `json:"durations"`

	CreatedAt time.Time `json:"createdAt"`
}
