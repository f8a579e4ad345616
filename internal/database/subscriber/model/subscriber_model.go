package model

import "time"

// Subscriber is a chat that opted in to push notifications. Granted is the
// single permission flag: notifications are never sent without it.
type Subscriber struct {
	ChatID    int64     `json:"chatId"`
	Username  string    `json:"username"`
	Granted   bool      `json:"granted"`
	CreatedAt time.Time `json:"createdAt"`
}
