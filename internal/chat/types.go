package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the assistant conversation. Sources carries the
// citation URLs backing an assistant reply.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []string  `json:"sources,omitempty"`
}

type Request struct {
	Message      string    `json:"message"`
	Conversation []Message `json:"conversation"`
}

type Response struct {
	Message Message `json:"message"`
}
