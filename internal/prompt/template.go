package prompt

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/seunghwan-dev/chingu/backend/internal/model/persona"
)

// Placeholders every persona template must carry. The template file uses the
// same brace format the product team ships for other locales.
var placeholders = []string{"{user_age}", "{bot_gender}", "{bot_name}"}

// Template is a persona instruction template loaded once at construction
// and cached for the life of the process.
type Template struct {
	text string
}

// Load reads and validates the template resource. A missing file or a
// template lacking a required placeholder is a construction failure; the
// process should not serve chat traffic without it.
func Load(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load persona template: %w", err)
	}
	return Parse(string(raw))
}

// Parse validates raw template text.
func Parse(raw string) (*Template, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("persona template is empty")
	}
	for _, ph := range placeholders {
		if !strings.Contains(text, ph) {
			return nil, fmt.Errorf("persona template missing placeholder %s", ph)
		}
	}
	return &Template{text: text}, nil
}

// Render substitutes the persona fields into the template. Invalid persona
// input surfaces as an error the boundary maps to a client error, not a 5xx.
func (t *Template) Render(p persona.Persona) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("render persona template: %w", err)
	}

	replacer := strings.NewReplacer(
		"{user_age}", strconv.Itoa(p.UserAge),
		"{bot_gender}", strings.TrimSpace(p.BotGender),
		"{bot_name}", strings.TrimSpace(p.BotName),
	)
	return replacer.Replace(t.text), nil
}
