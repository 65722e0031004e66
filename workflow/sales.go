package workflow

import (
	"context"
	"strings"

	"github.com/viant/routegate/intent"
)

// Sales follow-up actions.
const (
	ActionNurture  = "nurture"
	ActionCloseNow = "close_now"
	ActionDemoCall = "demo_call"
	ActionFollowUp = "follow_up"
)

// SalesAction picks the next step for a scored lead.
func SalesAction(score int, qualified bool) string {
	switch {
	case !qualified:
		return ActionNurture
	case score >= 90:
		return ActionCloseNow
	case score >= 70:
		return ActionDemoCall
	}
	return ActionFollowUp
}

// DefaultTemplates are the built-in sales replies.
var DefaultTemplates = map[string]string{
	"greeting": "Namaste! How can I help you? Which project are you interested in?",
	"price":    "Our plots start from {min_price}. Would you like a brochure?",
	"location": "Project location: {address}, {distance}.",
	"booking":  "Booking token is {token}. Shall I arrange a site visit?",
	"fallback": "That is an interesting question. Tell me a bit more or I can connect you with our sales team.",
}

var defaultProjectInfo = map[string]string{
	"min_price": "25 Lakhs",
	"max_price": "1 Crore",
	"address":   "Pune - Nashik Highway",
	"distance":  "45 min from Pune",
	"token":     "1 Lakh",
}

var salesTopics = []struct {
	topic    string
	keywords []string
}{
	{topic: "price", keywords: []string{"price", "kitna", "cost", "rate"}},
	{topic: "location", keywords: []string{"location", "kahaan", "address", "where"}},
	{topic: "booking", keywords: []string{"book", "buy", "purchase", "interested"}},
	{topic: "greeting", keywords: []string{"hi", "hello", "namaste"}},
}

// Sales answers sales queries with templates, falling back to the generator
// for general questions, and qualifies the lead when one is supplied.
type Sales struct {
	generator Generator
	templates map[string]string
}

// NewSales creates the sales workflow; templates override DefaultTemplates.
func NewSales(generator Generator, templates map[string]string) *Sales {
	merged := make(map[string]string, len(DefaultTemplates)+len(templates))
	for k, v := range DefaultTemplates {
		merged[k] = v
	}
	for k, v := range templates {
		merged[k] = v
	}
	return &Sales{generator: generator, templates: merged}
}

func (s *Sales) Name() string { return intent.Sales }

func (s *Sales) Execute(ctx context.Context, input *Input) (*Output, error) {
	topic := salesTopic(input.Text)
	metadata := map[string]interface{}{"topic": topic}
	var message string
	if topic != "general" {
		message = s.render(topic, asMap(input.Context["project_info"]))
	} else if s.generator != nil {
		generation, err := s.generator.Generate(ctx, input.Text)
		if err != nil {
			return nil, err
		}
		message = generation.Text
		for k, v := range generationMetadata(generation) {
			metadata[k] = v
		}
	} else {
		message = s.render("fallback", nil)
	}
	if lead := asMap(input.Context["lead"]); lead != nil {
		score, qualified := ScoreLead(lead)
		metadata["lead_score"] = score
		metadata["qualified"] = qualified
		metadata["action"] = SalesAction(score, qualified)
	}
	return &Output{Message: message, Metadata: metadata}, nil
}

func (s *Sales) render(topic string, info map[string]interface{}) string {
	template, ok := s.templates[topic]
	if !ok {
		template = s.templates["fallback"]
	}
	pairs := make([]string, 0, 2*len(defaultProjectInfo))
	for key, value := range defaultProjectInfo {
		if v, ok := info[key].(string); ok && v != "" {
			value = v
		}
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func salesTopic(text string) string {
	lower := strings.ToLower(text)
	for _, candidate := range salesTopics {
		for _, keyword := range candidate.keywords {
			if strings.Contains(lower, keyword) {
				return candidate.topic
			}
		}
	}
	return "general"
}
