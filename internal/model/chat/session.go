package chat

import "time"

// Session captures a transient anonymous conversation. Turns[0] is always
// the rendered system instruction; it is set once at creation and never
// duplicated by later appends.
type Session struct {
	ID        string    `json:"id"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"createdAt"`
}
