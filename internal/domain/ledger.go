package domain

import "time"

// ──────────────────────────────────────────────────────────────────────────────
// BalanceEntry
// ──────────────────────────────────────────────────────────────────────────────

// BalanceEntry is one row of a team's append-only coin history. The current
// balance of a team is the entry with the highest RaceID (insertion order
// breaks ties); rows are never updated or deleted.
type BalanceEntry struct {
	ID        int64     `json:"id"         db:"id"`
	TeamName  string    `json:"team_name"  db:"team_name"`
	RaceID    int64     `json:"race_id"    db:"race_id"`
	Coins     int64     `json:"coins"      db:"coins"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SetCoinsRequest carries an admin balance override.
// When RaceID is nil the ledger assigns max(existing)+1, or 0 for a new team.
type SetCoinsRequest struct {
	TeamName string `json:"team_name"`
	Coins    int64  `json:"coins"`
	RaceID   *int64 `json:"race_id"`
}
