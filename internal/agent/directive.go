package agent

import "strings"

// Directive is a document mutation requested in-band by generated text.
type Directive int

const (
	DirectiveNone Directive = iota
	DirectiveApplyEdit
	DirectiveInsert
)

func (d Directive) String() string {
	switch d {
	case DirectiveApplyEdit:
		return "apply_edit"
	case DirectiveInsert:
		return "insert"
	}
	return "none"
}

// Reserved markers the completion provider is instructed to emit. Detection
// is a plain case-sensitive substring match.
const (
	editMarker   = "[EDIT]"
	insertMarker = "[INSERT]"
)

// ParseDirective extracts at most one directive from generated text and
// strips the markers so they never reach the user. When both markers appear
// the edit directive wins; the insert marker is stripped along with it.
// Text without markers is returned unchanged.
func ParseDirective(text string) (Directive, string) {
	hasEdit := strings.Contains(text, editMarker)
	hasInsert := strings.Contains(text, insertMarker)

	switch {
	case hasEdit:
		return DirectiveApplyEdit, stripMarkers(text)
	case hasInsert:
		return DirectiveInsert, stripMarkers(text)
	}
	return DirectiveNone, text
}

func stripMarkers(text string) string {
	text = strings.ReplaceAll(text, editMarker, "")
	text = strings.ReplaceAll(text, insertMarker, "")
	return strings.TrimSpace(text)
}
