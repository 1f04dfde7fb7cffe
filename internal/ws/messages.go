// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeRaceOpened       MsgType = "race_opened"
	MsgTypeRaceClosed       MsgType = "race_closed"
	MsgTypeTicketsPurchased MsgType = "tickets_purchased"
	MsgTypeRaceSettled      MsgType = "race_settled"
)

// ──────────────────────────────────────────────────────────────────────────────
// RaceOpenedMessage / RaceClosedMessage — betting window transitions
// ──────────────────────────────────────────────────────────────────────────────

// RaceOpenedMessage tells clients a new betting window is open.
type RaceOpenedMessage struct {
	Type      MsgType   `json:"type"`
	RaceID    int64     `json:"race_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RaceClosedMessage tells clients the betting window is over.
type RaceClosedMessage struct {
	Type      MsgType   `json:"type"`
	RaceID    int64     `json:"race_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// TicketsPurchasedMessage — broadcast after a purchase commits
// ──────────────────────────────────────────────────────────────────────────────

// TicketsPurchasedMessage notifies clients that a team entered the race.
type TicketsPurchasedMessage struct {
	Type      MsgType   `json:"type"`
	TeamName  string    `json:"team_name"`
	RaceID    int64     `json:"race_id"`
	Tickets   int       `json:"tickets"`
	Coins     int64     `json:"coins"`
	Timestamp time.Time `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// RaceSettledMessage — broadcast when settlement commits
// ──────────────────────────────────────────────────────────────────────────────

// RaceSettledMessage carries the finishing order and each team's new balance.
type RaceSettledMessage struct {
	Type      MsgType          `json:"type"`
	RaceID    int64            `json:"race_id"`
	Result    []int            `json:"result"`
	Balances  map[string]int64 `json:"balances"`
	Timestamp time.Time        `json:"timestamp"`
}
