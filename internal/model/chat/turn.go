package chat

import "fmt"

// Role tags a turn with its speaker. Only the three values below are valid;
// anything else coming over the wire is rejected at the boundary.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a wire-level role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleSystem, RoleUser, RoleAssistant:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("invalid role %q", raw)
	}
}

// Turn is one role-tagged message unit in a conversation. Turns are
// immutable once created; ordering is significant.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemTurn builds a system turn.
func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// UserTurn builds a user turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}
