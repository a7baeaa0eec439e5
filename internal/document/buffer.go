// Package document holds the plain-text editing buffer and its span
// addressing. Offsets are rune-based so multi-byte text edits stay aligned
// with what an editor surface shows.
package document

import (
	"fmt"
	"sync"
)

// Span is a snapshot of a half-open range [From, To) of the buffer at the
// moment it was captured. It is not a live reference: the buffer may mutate
// afterwards and the snapshot goes stale.
type Span struct {
	Text    string `json:"text"`
	From    int    `json:"from"`
	To      int    `json:"to"`
	IsEmpty bool   `json:"isEmpty"`
}

// Buffer is a mutable plain-text document.
type Buffer struct {
	mu    sync.Mutex
	runes []rune
}

func NewBuffer(text string) *Buffer {
	return &Buffer{runes: []rune(text)}
}

func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.runes)
}

// Len returns the buffer length in runes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.runes)
}

// SetText replaces the whole document.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runes = []rune(text)
}

// Capture snapshots [from, to) as a Span.
func (b *Buffer) Capture(from, to int) (Span, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkRangeLocked(from, to); err != nil {
		return Span{}, err
	}
	return Span{
		Text:    string(b.runes[from:to]),
		From:    from,
		To:      to,
		IsEmpty: from == to,
	}, nil
}

// Replace substitutes text for the range [from, to).
func (b *Buffer) Replace(from, to int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkRangeLocked(from, to); err != nil {
		return err
	}
	replacement := []rune(text)
	updated := make([]rune, 0, len(b.runes)-(to-from)+len(replacement))
	updated = append(updated, b.runes[:from]...)
	updated = append(updated, replacement...)
	updated = append(updated, b.runes[to:]...)
	b.runes = updated
	return nil
}

// InsertAt inserts text at pos without removing anything.
func (b *Buffer) InsertAt(pos int, text string) error {
	return b.Replace(pos, pos, text)
}

func (b *Buffer) checkRangeLocked(from, to int) error {
	if from < 0 || to < from || to > len(b.runes) {
		return fmt.Errorf("span [%d,%d) out of range for document of length %d", from, to, len(b.runes))
	}
	return nil
}
