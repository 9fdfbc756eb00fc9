// Package prompt renders the instruction text sent to inference endpoints.
package prompt

import (
	"strings"

	"github.com/xaenox/cladari/internal/models"
)

const (
	assistantSystem = "You are Cladari, a botanical AI assistant specializing in plant care and collection management."
	scientistSystem = "You are a plant science expert with deep knowledge of botany, pathology, and horticulture."
)

// System returns the persona line for p. Unknown personas get the assistant line.
func System(p models.Persona) string {
	if p == models.PersonaScientist {
		return scientistSystem
	}
	return assistantSystem
}

// Build creates a completion prompt. The context block is omitted when context is empty.
func Build(message, context string, p models.Persona) string {
	var sb strings.Builder
	sb.WriteString(System(p))
	sb.WriteString("\n\n")
	if context != "" {
		sb.WriteString("Context:\n")
		sb.WriteString(context)
		sb.WriteString("\n\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(message)
	sb.WriteString("\n\nAssistant:")
	return sb.String()
}

// Messages is the chat-completions form of Build.
func Messages(message, context string, p models.Persona) []models.Message {
	user := message
	if context != "" {
		user = "Context:\n" + context + "\n\n" + message
	}
	return []models.Message{
		{Role: "system", Content: System(p)},
		{Role: "user", Content: user},
	}
}
