package examples

import "context"

// Walkthrough is one narrated example
type Walkthrough struct {
	Name            string
	Title           string
	Description     string
	NeedsCredential bool
	Run             func(ctx context.Context, r *Runner) error
}

// Command is how a learner starts the walkthrough
func (w Walkthrough) Command() string {
	return "learn-dspy " + w.Name
}

// All returns the walkthroughs in the order the welcome banner lists them
func All() []Walkthrough {
	return []Walkthrough{
		{
			Name:        "basic",
			Title:       "Basic Example",
			Description: "Learn DSPy signatures and predictors",
			Run:         RunBasic,
		},
		{
			Name:            "qa",
			Title:           "QA System",
			Description:     "Build a question-answering system",
			NeedsCredential: true,
			Run:             RunQA,
		},
		{
			Name:            "rag",
			Title:           "RAG Example",
			Description:     "Build a Retrieval-Augmented Generation system",
			NeedsCredential: true,
			Run:             RunRAG,
		},
	}
}
