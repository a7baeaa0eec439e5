package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jmercer/draftsmith/internal/provider"
)

type fakeSearcher struct {
	results []provider.SearchResult
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]provider.SearchResult, error) {
	return f.results, f.err
}

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []provider.Message, opts provider.CompletionOptions) (string, error) {
	for _, m := range messages {
		f.prompts = append(f.prompts, m.Content)
	}
	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEngineAnswerIncorporatesResults(t *testing.T) {
	searcher := &fakeSearcher{results: []provider.SearchResult{
		{Title: "France", URL: "https://example.com/fr", Snippet: "Paris is the capital", Source: "example.com"},
	}}
	completer := &fakeCompleter{reply: "Paris is the capital of France."}
	e := NewEngine(searcher, completer, testLogger(), 1000, 0.7)

	bundle := e.Answer(context.Background(), "capital of France")

	if len(completer.prompts) != 1 {
		t.Fatalf("expected 1 synthesis prompt, got %d", len(completer.prompts))
	}
	prompt := completer.prompts[0]
	if !strings.Contains(prompt, `"capital of France"`) {
		t.Errorf("prompt missing the query: %q", prompt)
	}
	if !strings.Contains(prompt, "France: Paris is the capital") {
		t.Errorf("prompt missing the context block: %q", prompt)
	}

	if bundle.Text != "Paris is the capital of France." {
		t.Errorf("unexpected answer text: %q", bundle.Text)
	}
	if len(bundle.SearchResults) != 1 {
		t.Fatalf("expected 1 echoed search result, got %d", len(bundle.SearchResults))
	}
	if bundle.SearchResults[0].Snippet != "Paris is the capital" {
		t.Errorf("unexpected echoed result: %+v", bundle.SearchResults[0])
	}
	if bundle.ShouldInsert {
		t.Error("expected shouldInsert=false without the insert marker")
	}
}

func TestEngineAnswerContextBlockOrderAndSeparator(t *testing.T) {
	searcher := &fakeSearcher{results: []provider.SearchResult{
		{Title: "First", Snippet: "one"},
		{Title: "Second", Snippet: "two"},
	}}
	completer := &fakeCompleter{reply: "ok"}
	e := NewEngine(searcher, completer, testLogger(), 1000, 0.7)

	e.Answer(context.Background(), "q")

	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "First: one\n\nSecond: two") {
		t.Errorf("expected blank-line separated context in result order, got %q", prompt)
	}
}

func TestEngineAnswerInsertDirective(t *testing.T) {
	searcher := &fakeSearcher{}
	completer := &fakeCompleter{reply: "Here is your paragraph. [INSERT]"}
	e := NewEngine(searcher, completer, testLogger(), 1000, 0.7)

	bundle := e.Answer(context.Background(), "write something")
	if !bundle.ShouldInsert {
		t.Error("expected shouldInsert=true")
	}
	if bundle.Text != "Here is your paragraph." {
		t.Errorf("expected marker stripped, got %q", bundle.Text)
	}
	if strings.Contains(bundle.Text, "[INSERT]") {
		t.Error("marker leaked into displayed text")
	}
}

func TestEngineAnswerSearchFailsOpen(t *testing.T) {
	// A failed search degrades to an empty context block; synthesis still runs.
	searcher := &fakeSearcher{err: &provider.ProviderError{Provider: "search", StatusCode: 500}}
	completer := &fakeCompleter{reply: "best effort answer"}
	e := NewEngine(searcher, completer, testLogger(), 1000, 0.7)

	bundle := e.Answer(context.Background(), "anything")
	if bundle.Text != "best effort answer" {
		t.Errorf("expected synthesis to proceed, got %q", bundle.Text)
	}
	if bundle.SearchResults == nil || len(bundle.SearchResults) != 0 {
		t.Errorf("expected empty (non-nil) results, got %#v", bundle.SearchResults)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("expected synthesis despite search failure")
	}
	if !strings.Contains(completer.prompts[0], "Search Results:\n\n") {
		t.Errorf("expected empty context block, got %q", completer.prompts[0])
	}
}

func TestEngineAnswerSynthesisFailure(t *testing.T) {
	searcher := &fakeSearcher{results: []provider.SearchResult{{Title: "T", Snippet: "s"}}}
	completer := &fakeCompleter{err: errors.New("boom")}
	e := NewEngine(searcher, completer, testLogger(), 1000, 0.7)

	bundle := e.Answer(context.Background(), "q")
	if bundle.Text != ApologyText {
		t.Errorf("expected apology text, got %q", bundle.Text)
	}
	if len(bundle.SearchResults) != 0 {
		t.Errorf("expected empty results on failure, got %d", len(bundle.SearchResults))
	}
	if bundle.ShouldInsert {
		t.Error("expected shouldInsert=false on failure")
	}
}

func TestEngineAnswerEmptyReply(t *testing.T) {
	e := NewEngine(&fakeSearcher{}, &fakeCompleter{reply: "  "}, testLogger(), 1000, 0.7)
	bundle := e.Answer(context.Background(), "q")
	if bundle.Text != "No response generated" {
		t.Errorf("expected placeholder for empty reply, got %q", bundle.Text)
	}
}
