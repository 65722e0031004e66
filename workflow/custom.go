package workflow

import (
	"context"
	"fmt"

	"github.com/viant/routegate/intent"
	"github.com/viant/routegate/model"
)

// Step transforms the workflow state.
type Step func(ctx context.Context, state map[string]interface{}) (map[string]interface{}, error)

// Custom is the default workflow. It runs its steps over the request
// context, then answers with the generator, or echoes the request when no
// generator is configured.
type Custom struct {
	generator Generator
	steps     []Step
}

// NewCustom creates the default workflow.
func NewCustom(generator Generator, steps ...Step) *Custom {
	return &Custom{generator: generator, steps: steps}
}

// AddStep appends a step.
func (c *Custom) AddStep(step Step) { c.steps = append(c.steps, step) }

func (c *Custom) Name() string { return intent.Custom }

func (c *Custom) Execute(ctx context.Context, input *Input) (*Output, error) {
	state := model.CopyValues(input.Context)
	var err error
	for i, step := range c.steps {
		if state, err = step(ctx, state); err != nil {
			return nil, fmt.Errorf("custom step %d failed: %w", i, err)
		}
	}
	if c.generator == nil {
		return &Output{Message: "Received: " + input.Text, Metadata: state}, nil
	}
	generation, err := c.generator.Generate(ctx, input.Text)
	if err != nil {
		return nil, err
	}
	metadata := generationMetadata(generation)
	for k, v := range state {
		if _, ok := metadata[k]; !ok {
			metadata[k] = v
		}
	}
	return &Output{Message: generation.Text, Metadata: metadata}, nil
}
