package poll

import (
	"time"

	"github.com/classpulse/backend/internal/models"
)

// Round is a single asked question: its options, vote tally, per-participant
// responses and the auto-finalize deadline timer. A round is owned by its
// session and only touched while the session mutex is held.
type Round struct {
	Question  string
	Options   []string
	Tally     map[string]int
	Responses map[string]string // participant handle -> chosen option
	StartedAt time.Time
	Deadline  time.Duration

	timer     *time.Timer
	finalized bool
}

func newRound(question string, options []string, deadline time.Duration) *Round {
	tally := make(map[string]int, len(options))
	for _, opt := range options {
		tally[opt] = 0
	}
	return &Round{
		Question:  question,
		Options:   append([]string(nil), options...),
		Tally:     tally,
		Responses: make(map[string]string),
		StartedAt: time.Now(),
		Deadline:  deadline,
	}
}

func (r *Round) hasOption(option string) bool {
	_, ok := r.Tally[option]
	return ok
}

// record stores a participant's answer, first answer wins.
func (r *Round) record(handle, option string) error {
	if !r.hasOption(option) {
		return ErrInvalidOption
	}
	if _, ok := r.Responses[handle]; ok {
		return ErrDuplicateAnswer
	}
	r.Responses[handle] = option
	r.Tally[option]++
	return nil
}

// stopTimer cancels the pending auto-finalize timer. Safe to call on an
// already-fired or already-stopped timer.
func (r *Round) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Round) tallyCopy() map[string]int {
	votes := make(map[string]int, len(r.Tally))
	for opt, n := range r.Tally {
		votes[opt] = n
	}
	return votes
}

func (r *Round) summary(endedAt time.Time) models.RoundSummary {
	return models.RoundSummary{
		Question: r.Question,
		Options:  append([]string(nil), r.Options...),
		Votes:    r.tallyCopy(),
		Total:    len(r.Responses),
		EndedAt:  endedAt,
	}
}

func (r *Round) question() models.QuestionStarted {
	return models.QuestionStarted{
		Question:         r.Question,
		Options:          append([]string(nil), r.Options...),
		TimeLimitSeconds: int(r.Deadline / time.Second),
		StartedAt:        r.StartedAt,
	}
}

func (r *Round) results() models.RoundResults {
	return models.RoundResults{
		Question: r.Question,
		Options:  append([]string(nil), r.Options...),
		Votes:    r.tallyCopy(),
		Total:    len(r.Responses),
	}
}
