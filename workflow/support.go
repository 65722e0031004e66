package workflow

import (
	"context"
	"fmt"

	"github.com/viant/routegate/intent"
)

const supportPrompt = "You are a support assistant. Answer briefly and suggest the next step.\nUser: "

// Support answers support requests.
type Support struct {
	generator Generator
}

// NewSupport creates the support workflow.
func NewSupport(generator Generator) *Support {
	return &Support{generator: generator}
}

func (s *Support) Name() string { return intent.Support }

func (s *Support) Execute(ctx context.Context, input *Input) (*Output, error) {
	metadata := map[string]interface{}{"ticket": input.TraceID, "priority": input.Priority}
	if s.generator == nil {
		return &Output{
			Message:  fmt.Sprintf("Support request %s registered, our team will get back to you.", input.TraceID),
			Metadata: metadata,
		}, nil
	}
	generation, err := s.generator.Generate(ctx, supportPrompt+input.Text)
	if err != nil {
		return nil, err
	}
	for k, v := range generationMetadata(generation) {
		metadata[k] = v
	}
	return &Output{Message: generation.Text, Metadata: metadata}, nil
}
