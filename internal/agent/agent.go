// Package agent implements the search-augmented answer engine: retrieve web
// results for a query, synthesize a single answer from them, and decide
// whether the answer should be inserted into the document.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmercer/draftsmith/internal/provider"
)

// AnswerBundle is the engine's result. Text has directive markers stripped;
// ShouldInsert records whether the insert directive was present.
type AnswerBundle struct {
	Text          string                  `json:"text"`
	SearchResults []provider.SearchResult `json:"searchResults"`
	ShouldInsert  bool                    `json:"shouldInsert"`
}

// ApologyText is returned when any step of the pipeline fails. The caller
// always receives a bundle, never an error.
const ApologyText = "Sorry, I encountered an error while processing your request."

const noResponseText = "No response generated"

// Searcher is the slice of the provider gateway used for retrieval.
type Searcher interface {
	Search(ctx context.Context, query string) ([]provider.SearchResult, error)
}

// Completer is the slice of the provider gateway used for synthesis.
type Completer interface {
	Complete(ctx context.Context, messages []provider.Message, opts provider.CompletionOptions) (string, error)
}

// Engine runs the strictly sequential search-then-synthesize pipeline.
type Engine struct {
	searcher    Searcher
	completer   Completer
	log         *slog.Logger
	maxTokens   int
	temperature float64
}

func NewEngine(searcher Searcher, completer Completer, log *slog.Logger, maxTokens int, temperature float64) *Engine {
	return &Engine{
		searcher:    searcher,
		completer:   completer,
		log:         log,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Answer retrieves results, synthesizes an answer incorporating them, and
// strips the insertion directive. Search fails open: any retrieval error
// degrades to an empty context block and synthesis still runs. A synthesis
// failure yields the fixed apology bundle.
func (e *Engine) Answer(ctx context.Context, query string) AnswerBundle {
	results, err := e.searcher.Search(ctx, query)
	if err != nil {
		e.log.Warn("search failed, proceeding without results", "error", err)
		results = nil
	}

	prompt := buildSynthesisPrompt(query, results)
	raw, err := e.completer.Complete(ctx, []provider.Message{
		{Role: provider.RoleUser, Content: prompt},
	}, provider.CompletionOptions{
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		e.log.Warn("answer synthesis failed", "error", err)
		return AnswerBundle{
			Text:          ApologyText,
			SearchResults: []provider.SearchResult{},
			ShouldInsert:  false,
		}
	}

	if strings.TrimSpace(raw) == "" {
		raw = noResponseText
	}

	directive, text := ParseDirective(raw)
	if results == nil {
		results = []provider.SearchResult{}
	}
	return AnswerBundle{
		Text:          text,
		SearchResults: results,
		ShouldInsert:  directive == DirectiveInsert,
	}
}

// buildSynthesisPrompt embeds the query and a "title: snippet" context block
// assembled in result order. An empty result set yields an empty block; the
// provider is still asked to answer.
func buildSynthesisPrompt(query string, results []provider.SearchResult) string {
	var context strings.Builder
	for i, r := range results {
		if i > 0 {
			context.WriteString("\n\n")
		}
		context.WriteString(r.Title + ": " + r.Snippet)
	}

	return fmt.Sprintf(`Based on the following search results, provide a comprehensive answer to the user's query: "%s"

Search Results:
%s

Please provide a well-structured response that:
1. Directly answers the user's question
2. Incorporates relevant information from the search results
3. Cites sources when appropriate
4. Is ready to be inserted into a document

If the response should be inserted into the document, end with %s tag.`, query, context.String(), insertMarker)
}
