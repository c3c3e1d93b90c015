package examples

import "github.com/longregen/learn-dspy/internal/prompt"

var (
	// BasicQASignature asks for a short factoid answer
	BasicQASignature = prompt.MustSignature("BasicQA",
		"Answer questions with short factoid answers.",
		[]prompt.FieldSpec{prompt.Field("question", "")},
		[]prompt.FieldSpec{prompt.Field("answer", "often between 1 and 5 words")},
	)

	// QuestionAnswerSignature answers from supplied background text
	QuestionAnswerSignature = prompt.MustSignature("QuestionAnswer",
		"Answer questions with detailed, accurate responses.",
		[]prompt.FieldSpec{prompt.Field("context", "Background information"), prompt.Field("question", "")},
		[]prompt.FieldSpec{prompt.Field("answer", "Detailed answer based on context")},
	)

	// GenerateAnswerSignature answers from retrieved documents
	GenerateAnswerSignature = prompt.MustSignature("GenerateAnswer",
		"Answer questions based on retrieved context.",
		[]prompt.FieldSpec{prompt.Field("context", "Retrieved relevant documents"), prompt.Field("question", "")},
		[]prompt.FieldSpec{prompt.Field("answer", "Answer derived from context")},
	)
)

// BasicQA is one question for BasicQASignature
type BasicQA struct {
	Question string
	prompt.Prediction
}

func (b *BasicQA) Inputs() map[string]any {
	return map[string]any{"question": b.Question}
}

// QuestionAnswer is one question over fixed background text
type QuestionAnswer struct {
	Context  string
	Question string
	prompt.Prediction
}

func (q *QuestionAnswer) Inputs() map[string]any {
	return map[string]any{"context": q.Context, "question": q.Question}
}

// GenerateAnswer is one question over a document set. The retrieval module
// turns Documents into the signature's context field.
type GenerateAnswer struct {
	Documents []string
	Question  string
	prompt.Prediction
}

func (g *GenerateAnswer) Inputs() map[string]any {
	return map[string]any{"documents": g.Documents, "question": g.Question}
}
