package chat

import (
	"encoding/json"
	"fmt"
	"io"

	chatModel "github.com/seunghwan-dev/chingu/backend/internal/model/chat"
	"github.com/seunghwan-dev/chingu/backend/internal/model/persona"
	chatService "github.com/seunghwan-dev/chingu/backend/internal/service/chat"
)

// wireTurn mirrors the {role, content} history entries on the wire.
type wireTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of both chat endpoints. When SessionID is set the
// server-side history is authoritative and History is ignored.
type ChatRequest struct {
	SessionID string     `json:"session_id,omitempty"`
	Message   string     `json:"message"`
	History   []wireTurn `json:"history,omitempty"`
	UserAge   int        `json:"user_age"`
	BotGender string     `json:"bot_gender"`
	BotName   string     `json:"bot_name"`
}

// DecodeChatRequest parses and validates a request body.
func DecodeChatRequest(r io.Reader) (chatService.Request, error) {
	var payload ChatRequest
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return chatService.Request{}, fmt.Errorf("invalid request body: %w", err)
	}
	return payload.ToServiceRequest()
}

// ToServiceRequest converts the wire payload, validating history roles.
func (p ChatRequest) ToServiceRequest() (chatService.Request, error) {
	history := make([]chatModel.Turn, 0, len(p.History))
	for _, turn := range p.History {
		role, err := chatModel.ParseRole(turn.Role)
		if err != nil {
			return chatService.Request{}, fmt.Errorf("invalid history entry: %w", err)
		}
		history = append(history, chatModel.Turn{Role: role, Content: turn.Content})
	}

	return chatService.Request{
		SessionID: p.SessionID,
		Message:   p.Message,
		History:   history,
		Persona: persona.Persona{
			UserAge:   p.UserAge,
			BotGender: p.BotGender,
			BotName:   p.BotName,
		},
	}, nil
}
