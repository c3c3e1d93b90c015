// Package prompt wraps the dspy-go library for the walkthroughs: declarative
// signatures, instrumented modules, and typed predictors.
//
// # Signatures
//
// A Signature is a named dspy-go signature whose description doubles as the
// instruction shown to the model:
//
//	var BasicQA = prompt.MustSignature("BasicQA", "Answer questions with short factoid answers.",
//	    []prompt.FieldSpec{prompt.Field("question", "")},
//	    []prompt.FieldSpec{prompt.Field("answer", "often between 1 and 5 words")})
//
// String renders the shorthand "question -> answer" used in narration.
//
// # Modules
//
// Build returns a Module for a Style:
//
//   - StylePlain: a single dspy-go Predict call
//   - StyleChainOfThought: dspy-go ChainOfThought, which adds a rationale
//   - StyleComposedRetrieval: Retrieval joining "documents" into "context"
//     before a nested ChainOfThought
//
// Modules read the model from dspy-go's default LLM, so register one first:
//
//	core.SetDefaultLLM(prompt.NewLLMServiceAdapter(llmService))
//
// # Predictors
//
// Predictor binds a module to a Record, a struct that embeds Prediction and
// lists its inputs:
//
//	p := prompt.NewPredictor[*QuestionAnswer](module)
//	rec := &QuestionAnswer{Context: "...", Question: "What is DSPy?"}
//	if err := p.Predict(ctx, rec); err != nil {
//	    return err
//	}
//	fmt.Println(rec.Answer)
package prompt
