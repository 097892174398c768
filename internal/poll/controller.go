package poll

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
)

// Gateway is the fan-out boundary the controller emits through. Delivery is
// best-effort and at-most-once per call; implementations must not block, so
// calls are made while the session mutex is held to keep events ordered per
// session.
type Gateway interface {
	BroadcastToSession(code, event string, payload interface{})
	SendToParticipant(handle, event string, payload interface{})
	JoinSession(handle, code string)
	LeaveSession(handle, code string)
}

// Controller owns the session state machine: it validates requests, mutates
// session and round state under the session mutex, runs round timers and
// emits events through the gateway. Request-style methods report failures as
// sentinel errors (see errors.go) and never partially apply state.
type Controller struct {
	registry         *Registry
	gateway          Gateway
	logger           *zap.Logger
	minTimeLimit     time.Duration
	defaultTimeLimit time.Duration
	historyLimit     int
}

// NewController creates a session controller.
func NewController(registry *Registry, gateway Gateway, minTimeLimit, defaultTimeLimit time.Duration, historyLimit int, logger *zap.Logger) *Controller {
	if minTimeLimit < 5*time.Second {
		minTimeLimit = 5 * time.Second
	}
	if defaultTimeLimit < minTimeLimit {
		defaultTimeLimit = minTimeLimit
	}
	return &Controller{
		registry:         registry,
		gateway:          gateway,
		logger:           logger,
		minTimeLimit:     minTimeLimit,
		defaultTimeLimit: defaultTimeLimit,
		historyLimit:     historyLimit,
	}
}

// CreateSession creates a new session owned by ownerHandle and joins the
// owner to its broadcast room.
func (c *Controller) CreateSession(ownerHandle string) *Session {
	s := c.registry.Create(ownerHandle)
	c.gateway.JoinSession(ownerHandle, s.Code)
	return s
}

// Join adds the connection to the session roster and broadcasts the updated
// roster. If a round is currently collecting answers the joiner immediately
// receives the current question.
func (c *Controller) Join(handle, code, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return ErrInvalidRequest
	}
	s, ok := c.registry.Get(code)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[handle] = models.Participant{Handle: handle, DisplayName: displayName}
	c.gateway.JoinSession(handle, code)
	c.gateway.BroadcastToSession(code, models.EventRoster, models.RosterUpdate{Participants: s.rosterLocked()})
	if s.state == StateAsking && s.current != nil {
		c.gateway.SendToParticipant(handle, models.EventQuestionStarted, s.current.question())
	}
	c.logger.Debug("participant joined", zap.String("session", code), zap.String("handle", handle), zap.String("name", displayName))
	return nil
}

// AskQuestion starts a new round. Owner only; rejected with
// ErrActionNotAllowedYet while the prior round is still collecting answers.
func (c *Controller) AskQuestion(handle, code, question string, options []string, timeLimitSeconds int) error {
	s, ok := c.registry.Get(code)
	if !ok {
		return ErrSessionNotFound
	}

	question = strings.TrimSpace(question)
	opts, err := cleanOptions(options)
	if err != nil {
		return err
	}
	if question == "" {
		return ErrInvalidRequest
	}
	deadline := c.defaultTimeLimit
	if timeLimitSeconds > 0 {
		deadline = time.Duration(timeLimitSeconds) * time.Second
	}
	if deadline < c.minTimeLimit {
		deadline = c.minTimeLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Owner != handle {
		return ErrNotAuthorized
	}
	if !s.canAskNextLocked() {
		return ErrActionNotAllowedYet
	}

	// A prior round can no longer be Asking here, but never leave a stale
	// timer behind when superseding it.
	if s.current != nil {
		s.current.stopTimer()
	}

	r := newRound(question, opts, deadline)
	s.current = r
	s.state = StateAsking
	s.asked = true
	c.gateway.BroadcastToSession(code, models.EventQuestionStarted, r.question())
	r.timer = time.AfterFunc(deadline, func() { c.expireRound(s, r) })
	c.logger.Info("question asked", zap.String("session", code), zap.Int("options", len(opts)), zap.Duration("deadline", deadline))
	return nil
}

// SubmitAnswer records a participant's answer (first answer wins), broadcasts
// the partial tally and finalizes the round once every participant answered.
func (c *Controller) SubmitAnswer(handle, code, option string) error {
	s, ok := c.registry.Get(code)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAsking || s.current == nil {
		return ErrNotAcceptingAnswers
	}
	if _, ok := s.participants[handle]; !ok {
		return ErrInvalidRequest
	}
	r := s.current
	if err := r.record(handle, option); err != nil {
		return err
	}
	c.gateway.BroadcastToSession(code, models.EventTally, models.TallyUpdate{Votes: r.tallyCopy(), Responded: len(r.Responses)})
	if s.unansweredLocked() == 0 {
		c.finalizeLocked(s, r)
	}
	return nil
}

// RemoveParticipant drops the named participant from the roster. Owner only.
// Removing a participant who is absent is a no-op. If the removal leaves
// every remaining participant answered, the round finalizes.
func (c *Controller) RemoveParticipant(ownerHandle, code, displayName string) error {
	s, ok := c.registry.Get(code)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Owner != ownerHandle {
		return ErrNotAuthorized
	}
	handle, found := s.findByNameLocked(displayName)
	if !found {
		return nil
	}
	delete(s.participants, handle)
	c.gateway.SendToParticipant(handle, models.EventKicked, map[string]string{"session_id": code})
	c.gateway.LeaveSession(handle, code)
	c.gateway.BroadcastToSession(code, models.EventRoster, models.RosterUpdate{Participants: s.rosterLocked()})
	c.logger.Info("participant removed", zap.String("session", code), zap.String("name", displayName))
	c.finalizeIfSettledLocked(s)
	return nil
}

// Disconnect removes the connection from every session it belongs to. An
// owner disconnect tears the session down: members get a session_ended
// event, the round timer is cancelled and the session leaves the registry.
func (c *Controller) Disconnect(handle string) {
	for _, s := range c.registry.All() {
		s.mu.Lock()
		if s.Owner == handle {
			if s.current != nil {
				s.current.stopTimer()
			}
			c.gateway.BroadcastToSession(s.Code, models.EventSessionEnded, map[string]string{"session_id": s.Code})
			for member := range s.participants {
				c.gateway.LeaveSession(member, s.Code)
			}
			c.gateway.LeaveSession(handle, s.Code)
			s.participants = make(map[string]models.Participant)
			s.mu.Unlock()
			c.registry.Delete(s.Code)
			c.logger.Info("session ended by owner disconnect", zap.String("session", s.Code))
			continue
		}
		if _, ok := s.participants[handle]; ok {
			delete(s.participants, handle)
			c.gateway.LeaveSession(handle, s.Code)
			c.gateway.BroadcastToSession(s.Code, models.EventRoster, models.RosterUpdate{Participants: s.rosterLocked()})
			c.finalizeIfSettledLocked(s)
		}
		s.mu.Unlock()
	}
}

// NextAllowed reports whether the owner may ask a new question right now.
func (c *Controller) NextAllowed(code string) (bool, error) {
	s, ok := c.registry.Get(code)
	if !ok {
		return false, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAskNextLocked(), nil
}

// History returns the completed round summaries, oldest first.
func (c *Controller) History(code string) ([]models.RoundSummary, error) {
	s, ok := c.registry.Get(code)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.RoundSummary(nil), s.history...), nil
}

// Snapshot returns a read-only view of the session for status lookups.
func (c *Controller) Snapshot(code string) (models.SessionSnapshot, error) {
	s, ok := c.registry.Get(code)
	if !ok {
		return models.SessionSnapshot{}, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionSnapshot{
		Code:         s.Code,
		State:        string(s.state),
		Participants: len(s.participants),
		RoundActive:  s.state == StateAsking,
		CreatedAt:    s.CreatedAt,
	}, nil
}

// expireRound is the deadline timer callback. It takes the session mutex, so
// it cannot race an answer or removal that finalized the round first.
func (c *Controller) expireRound(s *Session, r *Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.finalizeLocked(s, r)
}

// finalizeIfSettledLocked finalizes the current round after a departure left
// zero unanswered participants. An empty roster is left to the deadline timer.
func (c *Controller) finalizeIfSettledLocked(s *Session) {
	if s.state != StateAsking || s.current == nil {
		return
	}
	if len(s.participants) > 0 && s.unansweredLocked() == 0 {
		c.finalizeLocked(s, s.current)
	}
}

// finalizeLocked ends round r: cancels the timer, broadcasts final results
// and appends the summary to history. Idempotent; a superseded or
// already-finalized round is a no-op.
func (c *Controller) finalizeLocked(s *Session, r *Round) {
	if r == nil || s.current != r || r.finalized {
		return
	}
	r.finalized = true
	r.stopTimer()
	s.state = StateShowingResults
	endedAt := time.Now()
	c.gateway.BroadcastToSession(s.Code, models.EventResults, r.results())
	s.history = append(s.history, r.summary(endedAt))
	if c.historyLimit > 0 && len(s.history) > c.historyLimit {
		s.history = s.history[len(s.history)-c.historyLimit:]
	}
	c.logger.Info("round finalized", zap.String("session", s.Code), zap.Int("total", len(r.Responses)))
}

// cleanOptions trims options and validates the ask-question rules: at least
// two non-empty, distinct options.
func cleanOptions(options []string) ([]string, error) {
	out := make([]string, 0, len(options))
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" || seen[opt] {
			return nil, ErrInvalidRequest
		}
		seen[opt] = true
		out = append(out, opt)
	}
	if len(out) < 2 {
		return nil, ErrInvalidRequest
	}
	return out, nil
}
