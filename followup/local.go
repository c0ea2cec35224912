package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbxark/phqintake/types"
)

// LocalGenerator builds a follow-up question without a model call by naming
// the remaining topics in one sentence.
type LocalGenerator struct {
	Topics []Topic
}

// Topic maps a keyword found in a question to the phrase used when asking.
type Topic struct {
	Keyword string
	Phrase  string
}

func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{Topics: []Topic{
		{"little interest or pleasure", "whether you still enjoy the things you usually do"},
		{"feeling down", "how your mood has been"},
		{"asleep", "how you have been sleeping"},
		{"tired", "your energy levels"},
		{"appetite", "your appetite"},
		{"feeling bad about yourself", "how you have been feeling about yourself"},
		{"concentrating", "your concentration"},
		{"moving or speaking", "whether you have felt slowed down or restless"},
		{"better off dead", "whether you have had thoughts of hurting yourself"},
		{"how difficult", "how all of this affects your work, home life and relationships"},
	}}
}

func (g *LocalGenerator) GenerateFollowUp(ctx context.Context, req *types.FollowUpRequest) (string, error) {
	if len(req.Remaining) == 0 {
		return "", errors.New("no remaining questions")
	}
	topics := make([]string, 0, len(req.Remaining))
	seen := map[string]bool{}
	for _, q := range req.Remaining {
		topic := g.topicOf(q)
		if seen[topic] {
			continue
		}
		seen[topic] = true
		topics = append(topics, topic)
	}
	return fmt.Sprintf("Thank you for sharing that. Could you also tell me a little about %s over the last two weeks?", joinTopics(topics)), nil
}

func (g *LocalGenerator) topicOf(question string) string {
	lower := strings.ToLower(question)
	for _, topic := range g.Topics {
		if strings.Contains(lower, topic.Keyword) {
			return topic.Phrase
		}
	}
	return "how you have been feeling"
}

func joinTopics(topics []string) string {
	switch len(topics) {
	case 0:
		return "how you have been feeling"
	case 1:
		return topics[0]
	default:
		return strings.Join(topics[:len(topics)-1], ", ") + " and " + topics[len(topics)-1]
	}
}

type FailbackGenerator struct {
	generators []Generator
}

func NewFailbackGenerator(generators ...Generator) *FailbackGenerator {
	return &FailbackGenerator{generators: generators}
}

func (g *FailbackGenerator) GenerateFollowUp(ctx context.Context, req *types.FollowUpRequest) (string, error) {
	var lastErr error
	for _, generator := range g.generators {
		question, err := generator.GenerateFollowUp(ctx, req)
		if err == nil {
			return question, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all follow-up generators failed: %w", lastErr)
}
