package persona

import (
	"errors"
	"strings"
)

// Persona captures the companion identity supplied with each chat request.
// The bot role-plays a friend of the same age as the user.
type Persona struct {
	UserAge   int    `json:"user_age"`
	BotGender string `json:"bot_gender"`
	BotName   string `json:"bot_name"`
}

var (
	ErrInvalidAge     = errors.New("user_age must be a positive integer")
	ErrMissingGender  = errors.New("bot_gender is required")
	ErrMissingBotName = errors.New("bot_name is required")
)

// Validate checks the persona fields before template rendering.
func (p Persona) Validate() error {
	if p.UserAge <= 0 {
		return ErrInvalidAge
	}
	if strings.TrimSpace(p.BotGender) == "" {
		return ErrMissingGender
	}
	if strings.TrimSpace(p.BotName) == "" {
		return ErrMissingBotName
	}
	return nil
}
