package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/XiaoConstantine/dspy-go/pkg/core"
)

// ErrEmptyFieldName is returned when a signature declares a nameless field
var ErrEmptyFieldName = errors.New("signature field name must not be empty")

// Signature wraps dspy-go's signature with a name and a description
type Signature struct {
	core.Signature
	Name        string
	Description string
}

// FieldSpec declares one input or output field of a signature
type FieldSpec struct {
	Name        string
	Description string
}

// Field is shorthand for a FieldSpec literal
func Field(name, description string) FieldSpec {
	return FieldSpec{Name: name, Description: description}
}

// NewSignature builds a signature from explicit field declarations. The
// description becomes the instruction the model sees.
func NewSignature(name, description string, inputs, outputs []FieldSpec) (Signature, error) {
	if len(outputs) == 0 {
		return Signature{}, fmt.Errorf("signature %s declares no outputs", name)
	}

	in := make([]core.InputField, 0, len(inputs))
	for _, f := range inputs {
		field, err := f.toCore()
		if err != nil {
			return Signature{}, fmt.Errorf("signature %s input: %w", name, err)
		}
		in = append(in, core.InputField{Field: field})
	}

	out := make([]core.OutputField, 0, len(outputs))
	for _, f := range outputs {
		field, err := f.toCore()
		if err != nil {
			return Signature{}, fmt.Errorf("signature %s output: %w", name, err)
		}
		out = append(out, core.OutputField{Field: field})
	}

	coreSig := core.NewSignature(in, out)
	if description != "" {
		coreSig = coreSig.WithInstruction(description)
	}

	return Signature{
		Signature:   coreSig,
		Name:        name,
		Description: description,
	}, nil
}

// MustSignature is NewSignature for package-level declarations
func MustSignature(name, description string, inputs, outputs []FieldSpec) Signature {
	s, err := NewSignature(name, description, inputs, outputs)
	if err != nil {
		panic(fmt.Sprintf("failed to build signature: %v", err))
	}
	return s
}

func (f FieldSpec) toCore() (core.Field, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return core.Field{}, ErrEmptyFieldName
	}
	if f.Description == "" {
		return core.NewField(name), nil
	}
	return core.NewField(name, core.WithDescription(f.Description)), nil
}

// InputNames lists the input field names in declaration order
func (s Signature) InputNames() []string {
	names := make([]string, len(s.Inputs))
	for i, f := range s.Inputs {
		names[i] = f.Name
	}
	return names
}

// OutputNames lists the output field names in declaration order
func (s Signature) OutputNames() []string {
	names := make([]string, len(s.Outputs))
	for i, f := range s.Outputs {
		names[i] = f.Name
	}
	return names
}

// String renders the shorthand form, e.g. "context, question -> answer"
func (s Signature) String() string {
	return strings.Join(s.InputNames(), ", ") + " -> " + strings.Join(s.OutputNames(), ", ")
}
