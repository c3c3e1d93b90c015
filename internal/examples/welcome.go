package examples

import "github.com/longregen/learn-dspy/internal/config"

const bannerWidth = 60

// Welcome prints the banner listing every walkthrough
func (r *Runner) Welcome() {
	r.header("Welcome to Learn DSPy!", bannerWidth)
	r.println("\nDSPy is a framework for algorithmically optimizing LM prompts")
	r.println("and weights, with composable modules declared in Go.")

	r.println()
	r.header("Available Examples:", bannerWidth)
	for i, w := range All() {
		need := "No API key required"
		if w.NeedsCredential {
			need = "Requires API key"
		}
		r.printf("\n%d. %s (%s)\n", i+1, w.Title, need)
		r.printf("   Command: %s\n", w.Command())
		r.printf("   Description: %s\n", w.Description)
	}

	r.println()
	r.header("Quick Start:", bannerWidth)
	r.printf("1. Export your key: export %s='your-api-key'\n", config.CredentialEnv)
	r.println("   Or use Ollama: export LEARN_DSPY_LLM_PROVIDER=ollama")
	r.println("2. Inspect the settings: learn-dspy config")
	r.printf("3. Run any example: %s\n", All()[0].Command())
	r.println()
	r.rule(bannerWidth)
	r.println("For more information, see README.md")
	r.rule(bannerWidth)
}
