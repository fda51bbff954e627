package models

import "fmt"

// Role tags a conversation message.
type Role int

const (
	RoleSystem Role = iota + 1
	RoleUser
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

func (r Role) Valid() bool {
	return r >= RoleSystem && r <= RoleAssistant
}

// Message is one entry of a conversation history.
type Message struct {
	Role    Role
	Content string
}

func SystemMessage(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func UserMessage(content string) Message      { return Message{Role: RoleUser, Content: content} }
func AssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// DefaultHistory is the history every fresh query starts from.
func DefaultHistory() []Message {
	return []Message{SystemMessage(HistoryPreamble)}
}
