package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmercer/draftsmith/internal/agent"
	"github.com/jmercer/draftsmith/internal/provider"
)

type fakeCompleter struct {
	reply string
	err   error
	calls [][]provider.Message
	block chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []provider.Message, opts provider.CompletionOptions) (string, error) {
	f.calls = append(f.calls, messages)
	if f.block != nil {
		<-f.block
	}
	return f.reply, f.err
}

func TestSendAppendsBothTurns(t *testing.T) {
	c := NewConversation(&fakeCompleter{reply: "Hi there!"}, 1000, 0.7, 6000)

	reply, directive, err := c.Send(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if directive != agent.DirectiveNone {
		t.Errorf("unexpected directive %v", directive)
	}
	if reply.Role != RoleAssistant || reply.Content != "Hi there!" {
		t.Errorf("unexpected reply: %+v", reply)
	}

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "Hello" {
		t.Errorf("unexpected user turn: %+v", history[0])
	}
	if history[1].Role != RoleAssistant {
		t.Errorf("unexpected assistant turn: %+v", history[1])
	}
	if history[0].ID == "" || history[1].ID == "" || history[0].ID == history[1].ID {
		t.Error("messages must carry distinct ids")
	}
}

func TestSendStripsDirectiveFromStoredReply(t *testing.T) {
	c := NewConversation(&fakeCompleter{reply: "Revised paragraph. [EDIT]"}, 1000, 0.7, 6000)

	reply, directive, err := c.Send(context.Background(), "fix my text")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if directive != agent.DirectiveApplyEdit {
		t.Errorf("expected apply_edit directive, got %v", directive)
	}
	if strings.Contains(reply.Content, "[EDIT]") {
		t.Errorf("marker leaked into reply: %q", reply.Content)
	}
	if stored := c.History()[1].Content; strings.Contains(stored, "[EDIT]") {
		t.Errorf("marker leaked into stored history: %q", stored)
	}
}

func TestSendWireMessagesCarryRoleAndContentOnly(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	c := NewConversation(fc, 1000, 0.7, 6000)

	if _, _, err := c.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, _, err := c.Send(context.Background(), "second"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(fc.calls) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(fc.calls))
	}
	second := fc.calls[1]
	if len(second) != 3 {
		t.Fatalf("expected 3 windowed messages on second call, got %d", len(second))
	}
	want := []provider.Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "ok"},
		{Role: RoleUser, Content: "second"},
	}
	for i, m := range second {
		if m != want[i] {
			t.Errorf("wire[%d] = %+v, want %+v", i, m, want[i])
		}
	}
}

func TestSendProviderFailureAppendsApology(t *testing.T) {
	boom := errors.New("boom")
	c := NewConversation(&fakeCompleter{err: boom}, 1000, 0.7, 6000)

	reply, directive, err := c.Send(context.Background(), "Hello")
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if directive != agent.DirectiveNone {
		t.Errorf("unexpected directive on failure: %v", directive)
	}
	if reply.Content != ApologyText {
		t.Errorf("expected apology reply, got %q", reply.Content)
	}

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("failed turn must still terminate with an assistant reply, got %d messages", len(history))
	}
	if history[1].Content != ApologyText {
		t.Errorf("expected apology stored, got %q", history[1].Content)
	}
}

func TestSendEmptyReplyFallback(t *testing.T) {
	c := NewConversation(&fakeCompleter{reply: "   "}, 1000, 0.7, 6000)

	reply, _, err := c.Send(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.Content != emptyReplyText {
		t.Errorf("expected fallback reply, got %q", reply.Content)
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	c := NewConversation(&fakeCompleter{reply: "ok"}, 1000, 0.7, 6000)
	if _, _, err := c.Send(context.Background(), "  \n "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(c.History()) != 0 {
		t.Error("rejected message must not be appended")
	}
}

func TestSendSingleFlight(t *testing.T) {
	fc := &fakeCompleter{reply: "done", block: make(chan struct{})}
	c := NewConversation(fc, 1000, 0.7, 6000)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		if _, _, err := c.Send(context.Background(), "first"); err != nil {
			t.Errorf("first Send: %v", err)
		}
	}()

	// Wait until the first send has claimed the in-flight slot.
	for {
		c.mu.Lock()
		busy := c.inFlight
		c.mu.Unlock()
		if busy {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, _, err := c.Send(context.Background(), "second"); !errors.Is(err, ErrRequestInFlight) {
		t.Fatalf("expected ErrRequestInFlight, got %v", err)
	}

	close(fc.block)
	<-firstDone

	if _, _, err := c.Send(context.Background(), "third"); err != nil {
		t.Fatalf("Send after completion: %v", err)
	}
}
