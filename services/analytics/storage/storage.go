package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/meetpulse/backend/pkg/gen"
	"github.com/meetpulse/backend/services/analytics/entity"
)

var ErrSessionNotFound = errors.New("session not found")

// Storage is the session registry. Each session owns one append-only
// utterance log, at most one partial utterance, and a participant roster.
// The webhook consumer is the single writer per session; reads hand out
// copies so snapshot computation never observes a log that changes mid-way.
type Storage interface {
	CreateSession(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	AppendUtterance(ctx context.Context, sessionID string, u entity.Utterance) (entity.Utterance, error)
	SetPartial(ctx context.Context, sessionID string, p entity.PartialUtterance) error
	ClearPartial(ctx context.Context, sessionID string) error
	SetParticipants(ctx context.Context, sessionID string, names []string) error
	Session(ctx context.Context, sessionID string) (*entity.SessionState, error)
}

type session struct {
	utterances   []entity.Utterance
	partial      *entity.PartialUtterance
	participants []string
}

type storage struct {
	mu       sync.RWMutex
	sessions map[string]*session
	uuids    gen.UUIDGenerator
}

func New(uuids gen.UUIDGenerator) Storage {
	return &storage{
		sessions: make(map[string]*session),
		uuids:    uuids,
	}
}

func (s *storage) CreateSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; exists {
		return fmt.Errorf("session %s already exists", sessionID)
	}

	s.sessions[sessionID] = &session{}
	return nil
}

func (s *storage) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}

	delete(s.sessions, sessionID)
	return nil
}

// AppendUtterance adds a finalized utterance to the session log, creating the
// session if a webhook delivery beat the start call. The stored utterance is
// assigned its id here and any matching partial is cleared.
func (s *storage) AppendUtterance(ctx context.Context, sessionID string, u entity.Utterance) (entity.Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[sessionID]
	if sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	u.ID = s.uuids.Next()
	sess.utterances = append(sess.utterances, u)

	if sess.partial != nil && sess.partial.SpeakerName == u.SpeakerName {
		sess.partial = nil
	}

	return u, nil
}

func (s *storage) SetPartial(ctx context.Context, sessionID string, p entity.PartialUtterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[sessionID]
	if sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	sess.partial = &p
	return nil
}

func (s *storage) ClearPartial(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[sessionID]
	if sess == nil {
		return ErrSessionNotFound
	}

	sess.partial = nil
	return nil
}

func (s *storage) SetParticipants(ctx context.Context, sessionID string, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[sessionID]
	if sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	sess.participants = append([]string(nil), names...)
	return nil
}

// Session returns a point-in-time copy of the session state.
func (s *storage) Session(ctx context.Context, sessionID string) (*entity.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.sessions[sessionID]
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	state := &entity.SessionState{
		SessionID:    sessionID,
		Utterances:   append([]entity.Utterance(nil), sess.utterances...),
		Participants: append([]string(nil), sess.participants...),
	}
	if sess.partial != nil {
		p := *sess.partial
		state.Partial = &p
	}

	return state, nil
}
