package poll

import (
	"sync"
	"time"

	"github.com/classpulse/backend/internal/models"
)

// State is a session's lifecycle state.
type State string

const (
	StateIdle           State = "idle"
	StateAsking         State = "asking"
	StateShowingResults State = "showing_results"
)

// Session is one teacher-led polling instance: roster, current round and
// history of completed rounds. All mutation goes through the controller,
// which holds mu for the full duration of each operation; the round timer
// callback re-enters through the same mutex.
type Session struct {
	Code      string
	Owner     string // handle of the creating connection; compared by value, never transfers
	CreatedAt time.Time

	mu           sync.Mutex
	state        State
	participants map[string]models.Participant
	current      *Round
	history      []models.RoundSummary
	asked        bool // whether any round was ever asked
}

func newSession(code, owner string) *Session {
	return &Session{
		Code:         code,
		Owner:        owner,
		CreatedAt:    time.Now(),
		state:        StateIdle,
		participants: make(map[string]models.Participant),
	}
}

// rosterLocked returns a copy of the participant list.
func (s *Session) rosterLocked() []models.Participant {
	out := make([]models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	return out
}

// unansweredLocked counts roster members with no response in the current round.
func (s *Session) unansweredLocked() int {
	if s.current == nil {
		return len(s.participants)
	}
	n := 0
	for handle := range s.participants {
		if _, ok := s.current.Responses[handle]; !ok {
			n++
		}
	}
	return n
}

// canAskNextLocked reports whether a new round may start: always before the
// first question, afterwards only once the prior round has stopped collecting.
// A round finalized by its deadline counts as settled even if some
// participants never answered.
func (s *Session) canAskNextLocked() bool {
	if !s.asked {
		return true
	}
	if s.state == StateAsking {
		return false
	}
	if len(s.participants) == 0 {
		return true
	}
	if s.current == nil || s.current.finalized {
		return true
	}
	return s.unansweredLocked() == 0
}

// findByNameLocked returns the handle of the first participant with the given
// display name.
func (s *Session) findByNameLocked(displayName string) (string, bool) {
	for handle, p := range s.participants {
		if p.DisplayName == displayName {
			return handle, true
		}
	}
	return "", false
}
