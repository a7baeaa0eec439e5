// Package session ties one client's editing state together: the document
// buffer, the active selection, the edit workflow, and the conversation.
// Sessions are in-memory only and expire after a period of inactivity.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmercer/draftsmith/internal/agent"
	"github.com/jmercer/draftsmith/internal/chat"
	"github.com/jmercer/draftsmith/internal/document"
	"github.com/jmercer/draftsmith/internal/edit"
	"github.com/jmercer/draftsmith/internal/ulid"
)

// Session owns one client's mutable editing state. Nothing here is shared
// across sessions.
type Session struct {
	ID        string
	CreatedAt time.Time

	Buffer *document.Buffer
	Edit   *edit.Workflow
	Chat   *chat.Conversation

	mu      sync.Mutex
	selFrom int
	selTo   int
}

func New(buf *document.Buffer, wf *edit.Workflow, conv *chat.Conversation) *Session {
	return &Session{
		ID:        ulid.New(),
		CreatedAt: time.Now(),
		Buffer:    buf,
		Edit:      wf,
		Chat:      conv,
	}
}

// SetSelection records the active selection and returns its snapshot.
func (s *Session) SetSelection(from, to int) (document.Span, error) {
	span, err := s.Buffer.Capture(from, to)
	if err != nil {
		return document.Span{}, err
	}
	s.mu.Lock()
	s.selFrom = from
	s.selTo = to
	s.mu.Unlock()
	return span, nil
}

// Selection snapshots the current selection. Offsets left stale by buffer
// mutations are clamped to the document end.
func (s *Session) Selection() document.Span {
	s.mu.Lock()
	from, to := s.selFrom, s.selTo
	s.mu.Unlock()

	n := s.Buffer.Len()
	if from > n {
		from = n
	}
	if to > n {
		to = n
	}
	span, err := s.Buffer.Capture(from, to)
	if err != nil {
		// Clamped offsets are always valid; reaching here means the buffer
		// mutated between Len and Capture, so fall back to the caret at end.
		span, _ = s.Buffer.Capture(n, n)
	}
	return span
}

// Cursor is the insertion point: the end of the current selection.
func (s *Session) Cursor() int {
	return s.Selection().To
}

// ApplyDirective performs the document mutation a directive asks for.
// ApplyEdit replaces the whole document; Insert places text at the cursor.
func (s *Session) ApplyDirective(d agent.Directive, text string) error {
	switch d {
	case agent.DirectiveNone:
		return nil
	case agent.DirectiveApplyEdit:
		s.Buffer.SetText(text)
		return nil
	case agent.DirectiveInsert:
		return s.Buffer.InsertAt(s.Cursor(), text)
	}
	return fmt.Errorf("unknown directive %d", d)
}
