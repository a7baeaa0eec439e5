package edit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmercer/draftsmith/internal/document"
	"github.com/jmercer/draftsmith/internal/provider"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
	block   chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []provider.Message, opts provider.CompletionOptions) (string, error) {
	if len(messages) > 0 {
		f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	}
	if f.block != nil {
		<-f.block
	}
	return f.reply, f.err
}

func captureSpan(t *testing.T, b *document.Buffer, from, to int) document.Span {
	t.Helper()
	span, err := b.Capture(from, to)
	if err != nil {
		t.Fatalf("capture [%d,%d): %v", from, to, err)
	}
	return span
}

func TestWorkflowProposeConfirm(t *testing.T) {
	buf := document.NewBuffer("hello world, this is fine")
	fc := &fakeCompleter{reply: "goodbye"}
	w := NewWorkflow(fc, 500, 0.7)

	span := captureSpan(t, buf, 0, 5)
	sugg, err := w.Propose(context.Background(), span, ActionShorten)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sugg.SuggestedText != "goodbye" {
		t.Errorf("expected suggestion %q, got %q", "goodbye", sugg.SuggestedText)
	}
	if w.State() != StatePreviewing {
		t.Errorf("expected previewing state, got %s", w.State())
	}

	applied, err := w.Confirm(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied.SuggestedText != "goodbye" {
		t.Errorf("expected applied suggestion %q, got %q", "goodbye", applied.SuggestedText)
	}
	if got := buf.Text(); got != "goodbye world, this is fine" {
		t.Errorf("expected replaced document, got %q", got)
	}
	if w.State() != StateIdle {
		t.Errorf("expected idle state after confirm, got %s", w.State())
	}
	if w.Pending() != nil {
		t.Error("expected pending suggestion discarded after confirm")
	}
}

func TestWorkflowConfirmTargetsCapturedSpan(t *testing.T) {
	// Confirm must replace the span recorded at request time, not whatever
	// the selection is when the user finally clicks confirm.
	buf := document.NewBuffer("aaaaa bbbb ccccc")
	fc := &fakeCompleter{reply: "XXXXX"}
	w := NewWorkflow(fc, 500, 0.7)

	span := captureSpan(t, buf, 0, 5)
	if _, err := w.Propose(context.Background(), span, ActionGeneralEdit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Selection moves elsewhere; the workflow must not care.
	if _, err := buf.Capture(11, 16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := w.Confirm(buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.Text(); got != "XXXXX bbbb ccccc" {
		t.Errorf("expected original span replaced, got %q", got)
	}
}

func TestWorkflowCancelNeverMutates(t *testing.T) {
	buf := document.NewBuffer("original content")
	fc := &fakeCompleter{reply: "completely different"}
	w := NewWorkflow(fc, 500, 0.7)

	span := captureSpan(t, buf, 0, 8)
	if _, err := w.Propose(context.Background(), span, ActionImproveStyle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Cancel(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.Text(); got != "original content" {
		t.Errorf("cancel mutated the buffer: %q", got)
	}
	if w.State() != StateIdle {
		t.Errorf("expected idle state after cancel, got %s", w.State())
	}
}

func TestWorkflowEmptyReplyFallsBackToOriginal(t *testing.T) {
	buf := document.NewBuffer("keep me")
	fc := &fakeCompleter{reply: "   "}
	w := NewWorkflow(fc, 500, 0.7)

	span := captureSpan(t, buf, 0, 7)
	sugg, err := w.Propose(context.Background(), span, ActionExpand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sugg.SuggestedText != "keep me" {
		t.Errorf("expected fallback to original, got %q", sugg.SuggestedText)
	}
}

func TestWorkflowPropose_ProviderFailure(t *testing.T) {
	buf := document.NewBuffer("keep me")
	fc := &fakeCompleter{err: &provider.ProviderError{Provider: "completion", StatusCode: 503}}
	w := NewWorkflow(fc, 500, 0.7)

	span := captureSpan(t, buf, 0, 7)
	sugg, err := w.Propose(context.Background(), span, ActionShorten)
	if err == nil {
		t.Fatal("expected error from failed proposal")
	}
	if sugg.SuggestedText != "keep me" {
		t.Errorf("expected no-op suggestion on failure, got %q", sugg.SuggestedText)
	}
	if w.State() != StateIdle {
		t.Errorf("expected idle state after failure, got %s", w.State())
	}
	if w.Pending() != nil {
		t.Error("expected no pending suggestion after failure")
	}
}

func TestWorkflowPropose_EmptySelection(t *testing.T) {
	buf := document.NewBuffer("text")
	w := NewWorkflow(&fakeCompleter{reply: "x"}, 500, 0.7)

	span := captureSpan(t, buf, 2, 2)
	if _, err := w.Propose(context.Background(), span, ActionShorten); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
}

func TestWorkflowPropose_InvalidAction(t *testing.T) {
	buf := document.NewBuffer("text")
	w := NewWorkflow(&fakeCompleter{reply: "x"}, 500, 0.7)

	span := captureSpan(t, buf, 0, 4)
	if _, err := w.Propose(context.Background(), span, Action("nope")); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
}

func TestWorkflowSingleFlight(t *testing.T) {
	buf := document.NewBuffer("some text here")
	fc := &fakeCompleter{reply: "edited", block: make(chan struct{})}
	w := NewWorkflow(fc, 500, 0.7)

	span := captureSpan(t, buf, 0, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Propose(context.Background(), span, ActionShorten)
	}()

	// Wait until the first request holds the in-flight slot.
	for w.State() != StateRequesting {
		time.Sleep(time.Millisecond)
	}

	if _, err := w.Propose(context.Background(), span, ActionExpand); !errors.Is(err, ErrRequestInFlight) {
		t.Errorf("expected ErrRequestInFlight, got %v", err)
	}

	close(fc.block)
	<-done
	if w.State() != StatePreviewing {
		t.Errorf("expected previewing after first request completes, got %s", w.State())
	}
}

func TestWorkflowNewProposalDiscardsPending(t *testing.T) {
	buf := document.NewBuffer("first second")
	fc := &fakeCompleter{reply: "one"}
	w := NewWorkflow(fc, 500, 0.7)

	span := captureSpan(t, buf, 0, 5)
	if _, err := w.Propose(context.Background(), span, ActionShorten); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fc.reply = "two"
	span2 := captureSpan(t, buf, 6, 12)
	if _, err := w.Propose(context.Background(), span2, ActionExpand); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending := w.Pending()
	if pending == nil {
		t.Fatal("expected a pending suggestion")
	}
	if pending.SuggestedText != "two" || pending.SourceSpan.From != 6 {
		t.Errorf("expected newest proposal pending, got %+v", pending)
	}
}

func TestWorkflowConfirmWithoutPending(t *testing.T) {
	buf := document.NewBuffer("text")
	w := NewWorkflow(&fakeCompleter{reply: "x"}, 500, 0.7)

	if _, err := w.Confirm(buf); !errors.Is(err, ErrNoPendingSuggestion) {
		t.Errorf("expected ErrNoPendingSuggestion, got %v", err)
	}
	if err := w.Cancel(); !errors.Is(err, ErrNoPendingSuggestion) {
		t.Errorf("expected ErrNoPendingSuggestion, got %v", err)
	}
}
