// Package chat maintains the append-only conversational history and routes
// turns through the completion provider.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jmercer/draftsmith/internal/agent"
	"github.com/jmercer/draftsmith/internal/provider"
	"github.com/jmercer/draftsmith/internal/ulid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ApologyText terminates a user turn when the provider fails, so the history
// is never left without an assistant reply.
const ApologyText = "Sorry, I encountered an error. Please try again."

const emptyReplyText = "Sorry, I could not process your request."

var (
	ErrEmptyMessage    = errors.New("message content is empty")
	ErrRequestInFlight = errors.New("a chat request is already in flight")
)

// Message is one turn of the conversation. Messages are never mutated after
// they are appended.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Completer is the slice of the provider gateway the conversation needs.
type Completer interface {
	Complete(ctx context.Context, messages []provider.Message, opts provider.CompletionOptions) (string, error)
}

// Conversation owns one session's message history. A single request may be
// in flight at a time; overlapping sends are rejected rather than queued.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
	inFlight bool

	completer    Completer
	maxTokens    int
	temperature  float64
	windowBudget int
}

func NewConversation(completer Completer, maxTokens int, temperature float64, windowBudget int) *Conversation {
	return &Conversation{
		completer:    completer,
		maxTokens:    maxTokens,
		temperature:  temperature,
		windowBudget: windowBudget,
	}
}

// History returns a copy of all messages in order.
func (c *Conversation) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Send appends a user turn, asks the provider for a reply over the windowed
// history, and appends the assistant turn. Directive markers found in the
// reply are stripped before the message is stored; the detected directive is
// returned for the caller to act on.
//
// On provider failure the fixed apology turn is appended and returned along
// with the error, so every user turn still terminates with an assistant
// reply.
func (c *Conversation) Send(ctx context.Context, content string) (Message, agent.Directive, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, agent.DirectiveNone, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return Message{}, agent.DirectiveNone, ErrRequestInFlight
	}
	c.inFlight = true
	c.messages = append(c.messages, Message{
		ID:        ulid.New(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	})
	window := windowMessages(c.messages, c.windowBudget)
	// Only role and content cross the wire.
	wire := make([]provider.Message, 0, len(window))
	for _, m := range window {
		wire = append(wire, provider.Message{Role: m.Role, Content: m.Content})
	}
	c.mu.Unlock()

	raw, err := c.completer.Complete(ctx, wire, provider.CompletionOptions{
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		reply := c.appendLocked(RoleAssistant, ApologyText)
		return reply, agent.DirectiveNone, err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		reply := c.appendLocked(RoleAssistant, emptyReplyText)
		return reply, agent.DirectiveNone, nil
	}

	directive, text := agent.ParseDirective(raw)
	reply := c.appendLocked(RoleAssistant, text)
	return reply, directive, nil
}

func (c *Conversation) appendLocked(role, content string) Message {
	m := Message{
		ID:        ulid.New(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	c.messages = append(c.messages, m)
	return m
}
