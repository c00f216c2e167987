package chat

import "time"

// Completion is the finalized assistant reply returned to API clients.
type Completion struct {
	Content   string `json:"content"`
	Role      Role   `json:"role"`
	Timestamp string `json:"timestamp"`
}

// NewCompletion stamps an assistant reply with the current UTC time.
func NewCompletion(content string) Completion {
	return Completion{
		Content:   content,
		Role:      RoleAssistant,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
