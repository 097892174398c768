package models

import "time"

// Participant is one connected student in a session roster.
type Participant struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
}

// RoundSummary is the record of a completed question round, appended to
// session history when the round finalizes.
type RoundSummary struct {
	Question string         `json:"question"`
	Options  []string       `json:"options"`
	Votes    map[string]int `json:"votes"`
	Total    int            `json:"total"`
	EndedAt  time.Time      `json:"ended_at"`
}

// SessionSnapshot is the read-only view of a session exposed over HTTP.
type SessionSnapshot struct {
	Code         string    `json:"code"`
	State        string    `json:"state"`
	Participants int       `json:"participants"`
	RoundActive  bool      `json:"round_active"`
	CreatedAt    time.Time `json:"created_at"`
}
