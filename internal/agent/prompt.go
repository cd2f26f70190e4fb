package agent

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/strengths-agent/internal/strengths"
)

//go:embed prompt.md
var promptTemplate string

// SystemPrompt renders the assistant instructions for the given time.
func SystemPrompt(now time.Time) string {
	themes := make([]string, 0, len(strengths.Themes))
	for i, theme := range strengths.Themes {
		themes = append(themes, fmt.Sprintf("%d. %s", i+1, theme))
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{THEMES}}", strings.Join(themes, ", "))
	prompt = strings.ReplaceAll(prompt, "{{SYSTEM_TIME}}", now.UTC().Format(time.RFC3339))
	return strings.TrimSpace(prompt)
}
