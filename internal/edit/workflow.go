// Package edit implements the selection-scoped edit workflow: propose a
// suggestion for a captured span, preview it, then confirm or cancel.
package edit

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jmercer/draftsmith/internal/document"
	"github.com/jmercer/draftsmith/internal/provider"
)

// State of the per-session workflow.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StatePreviewing State = "previewing"
)

var (
	ErrEmptySelection      = errors.New("selection is empty")
	ErrInvalidAction       = errors.New("unknown edit action")
	ErrRequestInFlight     = errors.New("an edit request is already in flight")
	ErrNoPendingSuggestion = errors.New("no pending suggestion")
)

// Suggestion is a proposed replacement for the span it was generated from.
// It lives only until it is confirmed, cancelled, or displaced by a newer
// proposal.
type Suggestion struct {
	OriginalText  string        `json:"original"`
	SuggestedText string        `json:"suggestion"`
	Action        Action        `json:"action"`
	SourceSpan    document.Span `json:"sourceSpan"`
}

// Completer is the slice of the provider gateway the workflow needs.
type Completer interface {
	Complete(ctx context.Context, messages []provider.Message, opts provider.CompletionOptions) (string, error)
}

// Workflow drives the propose/preview/confirm cycle for one editing session.
// At most one provider request is in flight and at most one suggestion is
// pending at any time.
type Workflow struct {
	mu      sync.Mutex
	state   State
	pending *Suggestion

	completer   Completer
	maxTokens   int
	temperature float64
}

func NewWorkflow(completer Completer, maxTokens int, temperature float64) *Workflow {
	return &Workflow{
		state:       StateIdle,
		completer:   completer,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Pending returns a copy of the pending suggestion, or nil.
func (w *Workflow) Pending() *Suggestion {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return nil
	}
	s := *w.pending
	return &s
}

// Propose requests a suggestion for the captured span. The span is recorded
// verbatim so a later Confirm targets it even if the live selection moved.
// A proposal displaces any suggestion still pending from an earlier request.
//
// On provider failure the workflow returns to Idle and the returned
// suggestion carries the original text unchanged, so callers can still show
// a no-op preview alongside the error.
func (w *Workflow) Propose(ctx context.Context, span document.Span, action Action) (Suggestion, error) {
	if !action.Valid() {
		return Suggestion{}, ErrInvalidAction
	}
	if span.IsEmpty {
		return Suggestion{}, ErrEmptySelection
	}

	w.mu.Lock()
	if w.state == StateRequesting {
		w.mu.Unlock()
		return Suggestion{}, ErrRequestInFlight
	}
	w.state = StateRequesting
	w.pending = nil
	w.mu.Unlock()

	prompt := BuildPrompt(action, span.Text)
	content, err := w.completer.Complete(ctx, []provider.Message{
		{Role: provider.RoleUser, Content: prompt},
	}, provider.CompletionOptions{
		MaxTokens:   w.maxTokens,
		Temperature: w.temperature,
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.state = StateIdle
		return Suggestion{
			OriginalText:  span.Text,
			SuggestedText: span.Text,
			Action:        action,
			SourceSpan:    span,
		}, err
	}

	suggested := strings.TrimSpace(content)
	if suggested == "" {
		// Empty provider output falls back to the original text.
		suggested = span.Text
	}

	w.pending = &Suggestion{
		OriginalText:  span.Text,
		SuggestedText: suggested,
		Action:        action,
		SourceSpan:    span,
	}
	w.state = StatePreviewing
	return *w.pending, nil
}

// Confirm applies the pending suggestion to the span captured at request
// time, never to the buffer's current selection. The suggestion is discarded
// either way; a replacement that no longer fits the buffer reports an error.
func (w *Workflow) Confirm(buf *document.Buffer) (Suggestion, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil {
		return Suggestion{}, ErrNoPendingSuggestion
	}
	applied := *w.pending
	w.pending = nil
	w.state = StateIdle

	if err := buf.Replace(applied.SourceSpan.From, applied.SourceSpan.To, applied.SuggestedText); err != nil {
		return Suggestion{}, err
	}
	return applied, nil
}

// Cancel discards the pending suggestion leaving the buffer untouched.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil {
		return ErrNoPendingSuggestion
	}
	w.pending = nil
	w.state = StateIdle
	return nil
}
