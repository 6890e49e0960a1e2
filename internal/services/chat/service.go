// Package chat manages per-user advisory chat sessions.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/interfaces"
	"github.com/bobmcallan/iris/internal/models"
)

// Session states.
const (
	StateIdle     = "idle"
	StateAwaiting = "awaiting_response"
)

// fallbackReply is appended when the backend fails. The real error is logged
// and kept on the session; the transcript stays friendly.
const fallbackReply = "Sorry, I encountered an error. Please try again."

// queueCapacity bounds pending prompts per session.
const queueCapacity = 16

// session is one user's transcript plus its serializing worker. Prompts are
// answered one at a time in send order; a later send never overtakes an
// earlier one.
type session struct {
	userID   string
	mu       sync.Mutex
	messages []models.ChatMessage
	state    string
	lastErr  error

	queue chan string
	quit  chan struct{}
	done  chan struct{}
}

// Service implements interfaces.ChatService.
type Service struct {
	responder interfaces.ChatResponder
	logger    *common.Logger

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// NewService creates the chat service on top of a responder backend.
func NewService(responder interfaces.ChatResponder, logger *common.Logger) *Service {
	return &Service{
		responder: responder,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
}

// session returns the session for userID, starting its worker if needed.
func (s *Service) session(userID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("chat service is closed")
	}
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{
			userID: userID,
			state:  StateIdle,
			queue:  make(chan string, queueCapacity),
			quit:   make(chan struct{}),
			done:   make(chan struct{}),
		}
		s.sessions[userID] = sess
		go s.run(sess)
	}
	return sess, nil
}

// Send appends the user message and enqueues the prompt for the session
// worker. It returns immediately; the assistant reply is appended by the
// worker in strict send order.
func (s *Service) Send(ctx context.Context, userID, prompt string) (*models.ChatMessage, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}

	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   prompt,
		Timestamp: time.Now(),
	}

	sess.mu.Lock()
	select {
	case sess.queue <- prompt:
	default:
		sess.mu.Unlock()
		return nil, fmt.Errorf("too many pending messages")
	}
	sess.messages = append(sess.messages, msg)
	sess.state = StateAwaiting
	sess.mu.Unlock()

	return &msg, nil
}

// History returns a copy of the session transcript in append order.
func (s *Service) History(ctx context.Context, userID string) []models.ChatMessage {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]models.ChatMessage(nil), sess.messages...)
}

// State returns the session state: idle or awaiting_response.
func (s *Service) State(ctx context.Context, userID string) string {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return StateIdle
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Close stops all session workers and waits for them to drain.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		close(sess.quit)
		<-sess.done
	}
}

// run is the session worker: one prompt in flight at a time, FIFO.
func (s *Service) run(sess *session) {
	defer close(sess.done)
	for {
		select {
		case <-sess.quit:
			return
		case prompt := <-sess.queue:
			s.respond(sess, prompt)
		}
	}
}

// respond issues one backend request and appends the reply.
func (s *Service) respond(sess *session, prompt string) {
	reply, err := s.responder.Respond(context.Background(), sess.userID, prompt)

	content := reply
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", sess.userID).Msg("Chat backend failed")
		content = fallbackReply
	}

	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}

	sess.mu.Lock()
	sess.messages = append(sess.messages, msg)
	sess.lastErr = err
	if len(sess.queue) == 0 {
		sess.state = StateIdle
	}
	sess.mu.Unlock()
}
