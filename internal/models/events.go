package models

import "time"

// Broadcast event names pushed to session members.
const (
	EventRoster          = "roster"
	EventQuestionStarted = "question_started"
	EventTally           = "tally"
	EventResults         = "results"
	EventKicked          = "kicked"
	EventSessionEnded    = "session_ended"
)

// RosterUpdate lists the current participants of a session.
type RosterUpdate struct {
	Participants []Participant `json:"participants"`
}

// QuestionStarted announces a new round to all session members.
type QuestionStarted struct {
	Question         string    `json:"question"`
	Options          []string  `json:"options"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	StartedAt        time.Time `json:"started_at"`
}

// TallyUpdate is the partial-count snapshot broadcast after each answer.
type TallyUpdate struct {
	Votes     map[string]int `json:"votes"`
	Responded int            `json:"responded"`
}

// RoundResults carries the final counts when a round finalizes.
type RoundResults struct {
	Question string         `json:"question"`
	Options  []string       `json:"options"`
	Votes    map[string]int `json:"votes"`
	Total    int            `json:"total"`
}
