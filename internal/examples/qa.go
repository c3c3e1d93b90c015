package examples

import (
	"context"

	"github.com/longregen/learn-dspy/internal/prompt"
)

// QAContext is the background text every QA question is answered from
const QAContext = `DSPy is a framework for algorithmically optimizing LM prompts and weights.
It provides composable and declarative modules for instructing LMs in a familiar Pythonic syntax.
DSPy stands for Declarative Self-improving Language Programs in Python.`

// QAQuestions are asked in order
var QAQuestions = []string{
	"What does DSPy stand for?",
	"What is DSPy used for?",
	"What kind of syntax does DSPy use?",
}

// RunQA answers questions over a fixed context with chain of thought
func RunQA(ctx context.Context, r *Runner) error {
	r.header("QA System Example with DSPy", sectionWidth)

	r.println("\n1. Setting up the model...")
	if !r.configureOrReport(ctx) {
		return nil
	}

	r.println("\n2. Defining QA signature...")
	r.printf("   ✓ Signature defined: %s\n", QuestionAnswerSignature)

	r.println("\n3. Creating predictor...")
	module, err := r.BuildPredictor(QuestionAnswerSignature, prompt.StyleChainOfThought)
	if err != nil {
		r.printf("   Error: %v\n", err)
		return nil
	}
	r.println("   ✓ ChainOfThought predictor created")

	r.println("\n4. Running example questions...")
	records := make([]*QuestionAnswer, len(QAQuestions))
	for i, q := range QAQuestions {
		records[i] = &QuestionAnswer{Context: QAContext, Question: q}
	}

	s := RunExamples(ctx, r, prompt.NewPredictor[*QuestionAnswer](module), records, "Rationale")
	r.logger.InfoContext(ctx, "walkthrough finished", "walkthrough", "qa", "attempted", s.Attempted, "failed", s.Failed)

	r.println()
	r.header("Example completed!", sectionWidth)
	return nil
}
