package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/seunghwan-dev/chingu/backend/internal/model/chat"
	"github.com/seunghwan-dev/chingu/backend/internal/model/persona"
	"github.com/seunghwan-dev/chingu/backend/internal/prompt"
	"github.com/seunghwan-dev/chingu/backend/internal/service/ai"
	"github.com/seunghwan-dev/chingu/backend/internal/service/session"
)

var ErrEmptyMessage = errors.New("message is required")

// Request is one chat exchange. When SessionID is set the server-side
// history is used and updated; otherwise the caller owns the history and
// no store mutation occurs.
type Request struct {
	SessionID string
	Message   string
	History   []chat.Turn
	Persona   persona.Persona
}

// Service orchestrates one exchange: render the persona instruction,
// resolve history, assemble messages, call the completion gateway, and
// commit the exchange back to the session store when session-backed.
type Service struct {
	tmpl    *prompt.Template
	store   *session.MemoryStore
	gateway *ai.Service
}

// NewService wires the orchestration service.
func NewService(tmpl *prompt.Template, store *session.MemoryStore, gateway *ai.Service) *Service {
	return &Service{tmpl: tmpl, store: store, gateway: gateway}
}

// Store exposes the session store for read-only handlers.
func (s *Service) Store() *session.MemoryStore {
	return s.store
}

type exchange struct {
	req          Request
	systemPrompt string
	history      []chat.Turn
}

func (s *Service) prepare(req Request) (*exchange, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	systemPrompt, err := s.tmpl.Render(req.Persona)
	if err != nil {
		return nil, err
	}

	history := req.History
	if req.SessionID != "" {
		stored, created := s.store.GetOrCreate(req.SessionID, chat.SystemTurn(systemPrompt))
		if created {
			log.Printf("[chat] created session %s", req.SessionID)
		}
		history = stored
	}

	return &exchange{req: req, systemPrompt: systemPrompt, history: history}, nil
}

// commit appends the finished exchange to the session store. Appends happen
// only after the full assistant reply is known, so a failed upstream call
// never mutates history.
func (s *Service) commit(ex *exchange, assistantContent string) {
	if ex.req.SessionID == "" {
		return
	}
	err := s.store.AppendExchange(ex.req.SessionID,
		chat.UserTurn(ex.req.Message),
		chat.AssistantTurn(assistantContent),
	)
	if err != nil {
		log.Printf("[chat] failed to append exchange for session %s: %v", ex.req.SessionID, err)
	}
}

// Complete runs one synchronous exchange.
func (s *Service) Complete(ctx context.Context, req Request) (chat.Completion, error) {
	ex, err := s.prepare(req)
	if err != nil {
		return chat.Completion{}, err
	}

	messages := ai.BuildMessages(ex.systemPrompt, ex.history, req.Message)
	completion, err := s.gateway.Complete(ctx, messages)
	if err != nil {
		return chat.Completion{}, err
	}

	s.commit(ex, completion.Content)
	return completion, nil
}

// Stream opens one streaming exchange. The returned Stream is a finite,
// non-restartable fragment sequence; the wire-level [DONE] sentinel is the
// transport's concern, not this layer's.
func (s *Service) Stream(ctx context.Context, req Request) (*Stream, error) {
	ex, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	messages := ai.BuildMessages(ex.systemPrompt, ex.history, req.Message)
	reader, err := s.gateway.CompleteStream(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &Stream{svc: s, ex: ex, reader: reader}, nil
}

// History returns the stored session record, without creating one.
func (s *Service) History(sessionID string) (chat.Session, error) {
	record, ok := s.store.Snapshot(sessionID)
	if !ok {
		return chat.Session{}, session.ErrSessionNotFound
	}
	return record, nil
}

// GenerateSessionID hands out an opaque session identifier for clients that
// want server-side history.
func (s *Service) GenerateSessionID() string {
	return fmt.Sprintf("sess-%s", newID())
}
