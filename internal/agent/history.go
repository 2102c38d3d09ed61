package agent

import (
	"strings"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/llm"
)

// History is an append-only, role-tagged message log seeded with the agent's
// system instruction. Entries are only ever added in user/assistant pairs.
type History struct {
	messages []llm.Message
}

func NewHistory(system string) *History {
	return &History{messages: []llm.Message{{Role: llm.RoleSystem, Content: system}}}
}

// Messages returns a copy of the log, system instruction first.
func (h *History) Messages() []llm.Message {
	return append([]llm.Message(nil), h.messages...)
}

func (h *History) Len() int {
	return len(h.messages)
}

// Turns counts the non-system entries.
func (h *History) Turns() int {
	return len(h.messages) - 1
}

func (h *History) commit(user, assistant string) {
	h.messages = append(h.messages,
		llm.Message{Role: llm.RoleUser, Content: user},
		llm.Message{Role: llm.RoleAssistant, Content: assistant},
	)
}

// transcript renders the non-system entries as speaker-prefixed lines.
func (h *History) transcript(userName, assistantName string) string {
	var b strings.Builder
	for _, m := range h.messages[1:] {
		name := assistantName
		if m.Role == llm.RoleUser {
			name = userName
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
