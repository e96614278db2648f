// Package sessions tracks per-user upload conversations in memory.
//
// A session is ephemeral: it lives in a mutex-guarded map keyed by chat user
// id and does not survive a restart. At most one session exists per user;
// starting a new one supersedes whatever was there.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

// Phase is the step an upload conversation is at.
type Phase int

const (
	// PhaseIdle means no session exists for the user.
	PhaseIdle Phase = iota
	// PhaseChoosingKind means the user was shown the document/photo choice.
	PhaseChoosingKind
	// PhaseAwaitingDocument means the next document payload is the upload.
	PhaseAwaitingDocument
	// PhaseAwaitingPhoto means the next photo payload is the upload.
	PhaseAwaitingPhoto
)

func (p Phase) String() string {
	switch p {
	case PhaseChoosingKind:
		return "choosing_kind"
	case PhaseAwaitingDocument:
		return "awaiting_document"
	case PhaseAwaitingPhoto:
		return "awaiting_photo"
	default:
		return "idle"
	}
}

type session struct {
	phase   Phase
	touched time.Time
}

// Manager owns all live upload sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*session
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*session),
		now:      time.Now,
	}
}

// Begin starts a fresh session in PhaseChoosingKind, superseding any
// existing one.
func (m *Manager) Begin(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &session{phase: PhaseChoosingKind, touched: m.now()}
}

// ChooseKind advances a PhaseChoosingKind session to the awaiting phase for
// kind. An unknown kind or a wrong phase clears the session and reports
// common.ErrUnknownKind or common.ErrNoSession.
func (m *Manager) ChooseKind(userID int64, kind models.Kind) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || s.phase != PhaseChoosingKind {
		delete(m.sessions, userID)
		return PhaseIdle, common.ErrNoSession
	}

	var next Phase
	switch kind {
	case models.KindDocument:
		next = PhaseAwaitingDocument
	case models.KindPhoto:
		next = PhaseAwaitingPhoto
	default:
		delete(m.sessions, userID)
		return PhaseIdle, common.ErrUnknownKind
	}

	s.phase = next
	s.touched = m.now()
	return next, nil
}

// Phase reports the user's current phase, PhaseIdle when no session exists.
func (m *Manager) Phase(userID int64) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return PhaseIdle
	}
	return s.phase
}

// Clear ends the user's session and reports whether one existed.
func (m *Manager) Clear(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[userID]
	delete(m.sessions, userID)
	return ok
}

// ExpireIdle drops sessions untouched for longer than olderThan and returns
// how many were dropped.
func (m *Manager) ExpireIdle(olderThan time.Duration) int {
	cutoff := m.now().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.touched.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor periodically expires sessions idle longer than timeout, until
// ctx is done. A timeout of 0 or less disables expiry and returns at once.
// Sweeps run once per timeout, so a session lives at most twice the timeout.
func (m *Manager) RunJanitor(ctx context.Context, timeout time.Duration, logger logging.Logger) {
	if timeout <= 0 {
		return
	}

	ticker := time.NewTicker(timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.ExpireIdle(timeout); n > 0 {
				logger.Debug(ctx, "expired idle upload sessions", "count", n)
			}
		}
	}
}
