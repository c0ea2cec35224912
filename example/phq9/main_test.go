package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tbxark/phqintake/followup"
	"github.com/tbxark/phqintake/modeltest"
)

func TestNewSynthesizer_FallbackChoice(t *testing.T) {
	remaining := []string{"Over the last 2 weeks, how often have you been bothered by poor appetite or overeating?"}

	cm := modeltest.New(modeltest.Fail(errors.New("service unavailable")))
	s := newSynthesizer(cm, &Config{Lang: "English"})
	assert.Equal(t, followup.DefaultFallbackQuestion, s.Synthesize(context.Background(), "I feel tired.", remaining))

	cm = modeltest.New(modeltest.Fail(errors.New("service unavailable")))
	s = newSynthesizer(cm, &Config{Lang: "English", OfflineFollowUp: true})
	assert.Equal(t,
		"Thank you for sharing that. Could you also tell me a little about your appetite over the last two weeks?",
		s.Synthesize(context.Background(), "I feel tired.", remaining),
	)
}
