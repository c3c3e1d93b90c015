package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingOutput is returned when module outputs lack a string answer
var ErrMissingOutput = errors.New("missing output")

// Prediction holds the output fields every record shares
type Prediction struct {
	Answer string
	// Rationale is nil when the module produced no reasoning.
	Rationale *string
}

// Decode fills the prediction from module outputs. "answer" must be a
// string; "rationale" and its alias "reasoning" are optional.
func (p *Prediction) Decode(outputs map[string]any) error {
	answer, ok := outputs["answer"].(string)
	if !ok {
		return fmt.Errorf("%w: answer", ErrMissingOutput)
	}
	p.Answer = strings.TrimSpace(answer)
	p.Rationale = nil

	for _, key := range []string{"rationale", "reasoning"} {
		if r, ok := outputs[key].(string); ok && strings.TrimSpace(r) != "" {
			r = strings.TrimSpace(r)
			p.Rationale = &r
			break
		}
	}
	return nil
}

// Result exposes the decoded outputs
func (p *Prediction) Result() *Prediction {
	return p
}

// Record is a typed signature instance: its inputs feed a module and its
// embedded Prediction receives the outputs.
type Record interface {
	Inputs() map[string]any
	Decode(outputs map[string]any) error
	Result() *Prediction
}

// Predictor binds a module to a record type
type Predictor[R Record] struct {
	module Module
}

// NewPredictor creates a typed predictor over module
func NewPredictor[R Record](module Module) *Predictor[R] {
	return &Predictor[R]{module: module}
}

// Predict runs the module on rec's inputs and decodes the outputs into rec
func (p *Predictor[R]) Predict(ctx context.Context, rec R) error {
	outputs, err := p.module.Process(ctx, rec.Inputs())
	if err != nil {
		return err
	}
	return rec.Decode(outputs)
}
