package followup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/phqintake/modeltest"
	"github.com/tbxark/phqintake/types"
)

var remaining = []string{
	"Over the last 2 weeks, how often have you been bothered by trouble falling or staying asleep, or sleeping too much?",
	"Over the last 2 weeks, how often have you been bothered by feeling tired or having little energy?",
	"Over the last 2 weeks, how often have you been bothered by poor appetite or overeating?",
}

func TestChatGenerator_Prompt(t *testing.T) {
	m := modeltest.New(modeltest.Content("  How have you been sleeping, and how is your energy and appetite?  "))
	g := NewChatGenerator(m, WithLang("Korean"))

	q, err := g.GenerateFollowUp(context.Background(), &types.FollowUpRequest{
		InitialStatement: "I can't focus on anything.",
		Remaining:        remaining,
	})
	require.NoError(t, err)
	assert.Equal(t, "How have you been sleeping, and how is your energy and appetite?", q)

	msgs := m.Calls()[0]
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "Reply with the question only, in Korean.")
	assert.Contains(t, msgs[1].Content, "I can't focus on anything.")
	assert.Contains(t, msgs[1].Content, "poor appetite or overeating")
}

func TestChatGenerator_EmptyContent(t *testing.T) {
	g := NewChatGenerator(modeltest.New(modeltest.Content(" ")))
	_, err := g.GenerateFollowUp(context.Background(), &types.FollowUpRequest{Remaining: remaining})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestSynthesizer_FallsBackOnFailure(t *testing.T) {
	cases := map[string]modeltest.Reply{
		"call error":    modeltest.Fail(errors.New("quota exceeded")),
		"empty content": modeltest.Content(""),
		"nil message":   {},
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewSynthesizer(NewChatGenerator(modeltest.New(reply)))
			assert.Equal(t, DefaultFallbackQuestion, s.Synthesize(context.Background(), "hi", remaining))
		})
	}

	s := NewSynthesizer(nil, WithFallbackQuestion("Anything else?"))
	assert.Equal(t, "Anything else?", s.Synthesize(context.Background(), "hi", remaining))
}

func TestSynthesizer_FailbackToLocal(t *testing.T) {
	s := NewSynthesizer(NewFailbackGenerator(
		NewChatGenerator(modeltest.New(modeltest.Fail(errors.New("down")))),
		NewLocalGenerator(),
	))
	q := s.Synthesize(context.Background(), "I can't focus.", remaining)
	assert.Equal(t, "Thank you for sharing that. Could you also tell me a little about how you have been sleeping, your energy levels and your appetite over the last two weeks?", q)
}

func TestLocalGenerator_DeduplicatesTopics(t *testing.T) {
	g := NewLocalGenerator()
	q, err := g.GenerateFollowUp(context.Background(), &types.FollowUpRequest{
		Remaining: []string{"Something unusual?", "Another unusual thing?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Thank you for sharing that. Could you also tell me a little about how you have been feeling over the last two weeks?", q)

	_, err = g.GenerateFollowUp(context.Background(), &types.FollowUpRequest{})
	assert.Error(t, err)
}
