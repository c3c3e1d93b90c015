package examples

import (
	"context"

	"github.com/longregen/learn-dspy/internal/config"
	"github.com/longregen/learn-dspy/internal/prompt"
)

const sectionWidth = 50

// RunBasic introduces signatures and predictors. It needs no credential;
// with one it also asks a single live question.
func RunBasic(ctx context.Context, r *Runner) error {
	r.header("Basic DSPy Example", sectionWidth)

	r.println("\n1. Setting up DSPy model...")
	key, live := r.credential()
	if live {
		if !r.configure(ctx, key) {
			return nil
		}
	} else {
		r.println("   Note: You need to configure an LLM in your environment.")
		r.println("   Options:")
		r.printf("   - OpenAI: Set %s environment variable\n", config.CredentialEnv)
		r.println("   - Local models: Use Ollama or other local LLM servers")
	}

	r.println("\n2. Define a simple signature...")
	r.printf("   Signature: %s\n", BasicQASignature.Name)
	r.println("   Input: question")
	r.println("   Output: answer (1-5 words)")

	r.println("\n3. Create a predictor...")
	module, err := r.BuildPredictor(BasicQASignature, prompt.StylePlain)
	if err != nil {
		r.printf("   Error: %v\n", err)
		return nil
	}
	r.printf("   Predictor created: prompt.Build(%s, %s)\n", BasicQASignature.Name, prompt.StylePlain)

	if live {
		r.println("\n4. Asking a live question:")
		p := prompt.NewPredictor[*BasicQA](module)
		s := RunExamples(ctx, r, p, []*BasicQA{{Question: "What is the capital of France?"}}, "")
		r.logger.InfoContext(ctx, "walkthrough finished", "walkthrough", "basic", "attempted", s.Attempted, "failed", s.Failed)

		r.println()
		r.header("Example completed!", sectionWidth)
		return nil
	}

	r.println("\n4. Example usage (requires configured LLM):")
	r.println("   p := prompt.NewPredictor[*BasicQA](module)")
	r.println("   rec := &BasicQA{Question: \"What is the capital of France?\"}")
	r.println("   err := p.Predict(ctx, rec)")
	r.println("   fmt.Println(rec.Answer) // Expected: \"Paris\"")

	r.println()
	r.rule(sectionWidth)
	r.println("To run this with a real LLM:")
	r.printf("1. Set up your API key (e.g., %s)\n", config.CredentialEnv)
	r.println("   or point LEARN_DSPY_LLM_PROVIDER at a local Ollama")
	r.println("2. Run: learn-dspy basic")
	r.rule(sectionWidth)
	return nil
}
