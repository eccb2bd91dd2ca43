package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Session represents one end-user conversation thread.
type Session struct {
	ThreadID     string          `json:"thread_id"`
	ActiveDomain Domain          `json:"active_domain,omitempty"`
	LastDecision json.RawMessage `json:"last_decision,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Message is a single entry in a thread's append-only history.
type Message struct {
	MessageID  string    `json:"message_id"`
	ThreadID   string    `json:"thread_id"`
	Role       string    `json:"role"` // user, assistant, tool
	Content    string    `json:"content"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessage builds a message with a fresh id for the given thread.
func NewMessage(threadID, role, content string) Message {
	return Message{
		MessageID: "msg_" + uuid.New().String()[:8],
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// LastUserMessage returns the content of the most recent user message in the
// ordered history, or "" when no user message exists. Confirmation and skip
// detection always read this, never a reconstruction.
func LastUserMessage(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Content
		}
	}
	return ""
}

// AgentState holds the in-flight record for a thread's pending workflow.
// A thread carries at most one pending workflow at a time.
type AgentState struct {
	ThreadID  string    `json:"thread_id"`
	Domain    Domain    `json:"domain"`
	Record    Record    `json:"record"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToolRequest is a tool call emitted by the oracle layer.
type ToolRequest struct {
	CallID string          `json:"call_id"`
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args,omitempty"`
}
