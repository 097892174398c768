package poll

import (
	"crypto/rand"
	"sync"

	"go.uber.org/zap"
)

// codeAlphabet excludes easily confused characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Registry holds all active sessions keyed by join code (thread-safe).
// Once a session is fetched, all further mutation on it is serialized by the
// session's own mutex.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	codeLen  int
	logger   *zap.Logger
}

// NewRegistry creates a session registry generating codes of codeLen characters.
func NewRegistry(codeLen int, logger *zap.Logger) *Registry {
	if codeLen < 4 {
		codeLen = 4
	}
	return &Registry{
		sessions: make(map[string]*Session),
		codeLen:  codeLen,
		logger:   logger,
	}
}

// Create stores a new idle session owned by ownerHandle under a fresh
// collision-checked join code.
func (reg *Registry) Create(ownerHandle string) *Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	code := reg.newCodeLocked()
	s := newSession(code, ownerHandle)
	reg.sessions[code] = s
	reg.logger.Info("session created", zap.String("session", code))
	return s
}

// Get returns the session for code, if present.
func (reg *Registry) Get(code string) (*Session, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	s, ok := reg.sessions[code]
	return s, ok
}

// Delete removes the session for code; idempotent.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	if _, ok := reg.sessions[code]; ok {
		delete(reg.sessions, code)
		reg.logger.Info("session deleted", zap.String("session", code))
	}
	reg.mu.Unlock()
}

// All returns a snapshot of every active session.
func (reg *Registry) All() []*Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Session, 0, len(reg.sessions))
	for _, s := range reg.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of active sessions.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.sessions)
}

func (reg *Registry) newCodeLocked() string {
	for {
		code := randomCode(reg.codeLen)
		if _, taken := reg.sessions[code]; !taken {
			return code
		}
	}
}

func randomCode(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
