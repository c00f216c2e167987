package ai

import (
	"github.com/cloudwego/eino/schema"

	"github.com/seunghwan-dev/chingu/backend/internal/model/chat"
)

// BuildMessages assembles the ordered message list submitted to the
// completion service: rendered system instruction, prior history, then the
// new user turn. A system turn already present in the history is replaced
// by the freshly rendered one, never stacked; callers that round-trip
// assembled history through the stateless API would otherwise duplicate it.
func BuildMessages(systemPrompt string, history []chat.Turn, userMessage string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))

	for _, turn := range history {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		case chat.RoleSystem:
			// Replaced by the leading system message above.
		}
	}

	messages = append(messages, schema.UserMessage(userMessage))
	return messages
}
