package questionnaire

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_PHQ9(t *testing.T) {
	q, err := Load("phq9.json")
	require.NoError(t, err)
	require.Len(t, q, 10)
	assert.Equal(t, "phq9_1", q[0].ID)
	assert.Equal(t, FunctionalImpairmentID, q[9].ID)
	assert.Len(t, q.Remaining(), 10)
	for _, it := range q {
		assert.Len(t, it.Options, 4, it.ID)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrDefinitionMissing)
}

func TestParse_RejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]string{
		"empty":           `[]`,
		"not json":        `{`,
		"duplicate id":    `[{"id":"a","question":"q","options":[{"text":"x","score":0}]},{"id":"a","question":"q","options":[{"text":"x","score":0}]}]`,
		"no options":      `[{"id":"a","question":"q","options":[]}]`,
		"duplicate score": `[{"id":"a","question":"q","options":[{"text":"x","score":0},{"text":"y","score":0}]}]`,
		"pre-answered":    `[{"id":"a","question":"q","options":[{"text":"x","score":0}],"answer_score":0,"reasoning":"r"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestSchema(t *testing.T) {
	s, err := Schema()
	require.NoError(t, err)
	assert.Contains(t, s, "answer_score")
	assert.Contains(t, s, "reasoning")
}
