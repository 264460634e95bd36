// Package specialist defines the documentation writers the routing engine
// can select. Each writer owns one region of the document store and turns a
// context payload into a prompt for the generative-text collaborator.
package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/robertoallende/coderipple-sub001/internal/docstore"
	"github.com/robertoallende/coderipple-sub001/internal/genai"
	"github.com/robertoallende/coderipple-sub001/pkg/routing"
)

// Writer is one documentation specialist.
type Writer struct {
	ID routing.Specialist
	// Region is the writer's disjoint area of the document store.
	Region string
	// DocPath is the document written inside the region.
	DocPath string
	// System is the writing persona handed to the generator.
	System string
	// MaxTokens bounds the generated prose.
	MaxTokens int
}

// Result is one finished specialist invocation.
type Result struct {
	Writer   Writer
	Document docstore.Document
	Index    docstore.IndexContribution
}

// registry holds the stock writers in routing order.
var registry = map[routing.Specialist]Writer{
	routing.SpecialistUserGuide: {
		ID:      routing.SpecialistUserGuide,
		Region:  "user-guide",
		DocPath: "usage.md",
		System: "You are a user documentation writer. Update usage documentation " +
			"to reflect the described change. Write for operators of the software, " +
			"not its developers. Do not invent behavior the change does not show.",
		MaxTokens: 1500,
	},
	routing.SpecialistArchitectureState: {
		ID:      routing.SpecialistArchitectureState,
		Region:  "architecture",
		DocPath: "current-state.md",
		System: "You are an architecture documentation writer. Update the " +
			"current-state description of the system: components, their " +
			"responsibilities, and dependencies. Describe what is, not what was.",
		MaxTokens: 1500,
	},
	routing.SpecialistDecisionRecord: {
		ID:      routing.SpecialistDecisionRecord,
		Region:  "decisions",
		DocPath: "decision.md",
		System: "You are recording an engineering decision. From the commit " +
			"narrative and the change itself, capture what was decided, the " +
			"context, and the consequences, in decision-record form.",
		MaxTokens: 2000,
	},
}

// For returns the writer for a specialist identifier.
func For(id routing.Specialist) (Writer, bool) {
	w, ok := registry[id]
	return w, ok
}

// Run renders the payload, calls the generator, and packages the prose as a
// document plus the writer's index contribution. The engine never inspects
// the prose beyond requiring it to be non-empty.
func (w Writer) Run(ctx context.Context, gen genai.Generator, payload routing.ContextPayload) (Result, error) {
	prose, err := gen.Generate(ctx, genai.Request{
		System:    w.System,
		Prompt:    RenderPrompt(payload),
		MaxTokens: w.MaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("specialist %s: %w", w.ID, err)
	}

	return Result{
		Writer:   w,
		Document: docstore.Document{Path: w.DocPath, Content: prose},
		Index: docstore.IndexContribution{
			Specialist: string(w.ID),
			Entries: []docstore.IndexEntry{{
				Title: indexTitle(w, payload),
				Path:  w.Region + "/" + w.DocPath,
			}},
		},
	}, nil
}

func indexTitle(w Writer, payload routing.ContextPayload) string {
	words := strings.Split(string(w.ID), "-")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}

	return fmt.Sprintf("%s (%s, %s)", strings.Join(words, " "),
		payload.Classification.Primary, payload.Score.Bucket)
}
