package agent

// Role identifies who produced a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	// RoleTool carries the results of the tool calls requested by the preceding model message.
	RoleTool Role = "tool"
)

// Message is a single turn in a conversation.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the structured response of a dispatched ToolCall.
type ToolResult struct {
	ID       string
	Name     string
	Response map[string]any
}

// UserMessage builds a user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// HasToolCalls reports whether the model asked for tools.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
