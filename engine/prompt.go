package engine

import (
	"fmt"
	"strings"

	"github.com/Gh0stWires/T-800-server/core"
)

// defaultPersona is the fixed personality used when no system prompt
// override is supplied.
const defaultPersona = "An advanced, witty, and helpful female Southern AI assistant. " +
	"Your goal is to serve and delight the user in a real conversation, just like two people chatting. " +
	"Do not write scene directions, stage directions, or narrate your actions. " +
	"Do not role-play. Do not write as if you are in a play or script. " +
	"Speak directly to the user in first-person, naturally, and with Southern charm."

// buildSystemPrompt renders the system message: the agent's name, either the
// trimmed override or the default persona, and a user-id suffix.
func buildSystemPrompt(agentName, userID, override string) string {
	nameIntro := fmt.Sprintf("You are %s.", agentName)
	userInfo := fmt.Sprintf(" The user's ID is %s.", userID)

	if override != "" {
		return nameIntro + " " + strings.TrimSpace(override) + userInfo
	}
	return nameIntro + " " + defaultPersona + userInfo
}

// buildPrompt assembles the ordered message list sent to the model: system
// prompt, optional summary note, recent turns in chronological order, and
// the new question as the final user message. Token budgeting is the model
// call's concern, not this function's.
func buildPrompt(agentName, userID, override, summary string, recent []core.Message, question string) []core.Message {
	messages := make([]core.Message, 0, len(recent)+3)
	messages = append(messages, core.Message{
		Role:    "system",
		Content: buildSystemPrompt(agentName, userID, override),
	})
	if summary != "" {
		messages = append(messages, core.Message{
			Role:    "system",
			Content: "Summary of earlier conversation: " + summary,
		})
	}
	messages = append(messages, recent...)
	messages = append(messages, core.Message{Role: core.RoleUser, Content: question})
	return messages
}
