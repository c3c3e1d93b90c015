package examples

import (
	"context"

	"github.com/longregen/learn-dspy/internal/prompt"
)

// RAGDocuments stand in for a retrieval index
var RAGDocuments = []string{
	"DSPy is a framework that helps you optimize LM prompts and weights algorithmically.",
	"DSPy provides composable modules for instructing language models using Python syntax.",
	"The framework automatically optimizes prompts through compilation and evaluation.",
	"DSPy allows you to build complex LM pipelines with modules like ChainOfThought and ReAct.",
}

// RAGQuestions are asked in order
var RAGQuestions = []string{
	"What is DSPy?",
	"How does DSPy help with prompts?",
	"What modules does DSPy provide?",
}

// RunRAG answers questions from a document set through the composed
// retrieval module.
func RunRAG(ctx context.Context, r *Runner) error {
	r.header("RAG System Example with DSPy", sectionWidth)

	r.println("\n1. Setting up the model...")
	if !r.configureOrReport(ctx) {
		return nil
	}

	r.println("\n2. Defining RAG signature...")
	r.printf("   ✓ Signature defined: %s\n", GenerateAnswerSignature)

	r.println("\n3. Creating RAG module...")
	module, err := r.BuildPredictor(GenerateAnswerSignature, prompt.StyleComposedRetrieval)
	if err != nil {
		r.printf("   Error: %v\n", err)
		return nil
	}
	r.println("   ✓ RAG module created")

	r.println("\n4. Preparing sample documents...")
	r.printf("   ✓ Loaded %d documents\n", len(RAGDocuments))

	r.println("\n5. Running example queries...")
	records := make([]*GenerateAnswer, len(RAGQuestions))
	for i, q := range RAGQuestions {
		records[i] = &GenerateAnswer{Documents: RAGDocuments, Question: q}
	}

	s := RunExamples(ctx, r, prompt.NewPredictor[*GenerateAnswer](module), records, "Reasoning")
	r.logger.InfoContext(ctx, "walkthrough finished", "walkthrough", "rag", "attempted", s.Attempted, "failed", s.Failed)

	r.println()
	r.header("RAG Example completed!", sectionWidth)
	r.println("\nNote: In a real RAG system, you would:")
	r.println("- Use a vector database for document retrieval")
	r.println("- Implement semantic search")
	r.println("- Add document chunking and embedding")
	r.rule(sectionWidth)
	return nil
}
