package llm

import (
	"context"
	"time"

	"github.com/viant/routegate/costguard"
)

// Static replies with a fixed text; it is the offline fallback provider.
type Static struct {
	name  string
	reply string
}

// NewStatic creates a static provider.
func NewStatic(name, reply string) *Static {
	if name == "" {
		name = "static"
	}
	return &Static{name: name, reply: reply}
}

func (s *Static) Name() string { return s.name }

func (s *Static) Generate(ctx context.Context, prompt string) (*Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()
	text := s.reply
	if text == "" {
		text = prompt
	}
	return &Generation{
		Text:       text,
		TokensUsed: costguard.EstimateTokens(text),
		Model:      s.name,
		LatencyMs:  time.Since(started).Milliseconds(),
		Provider:   s.name,
	}, nil
}

func (s *Static) HealthCheck(context.Context) error { return nil }
