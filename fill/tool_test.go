package fill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/phqintake/modeltest"
	"github.com/tbxark/phqintake/questionnaire"
	"github.com/tbxark/phqintake/types"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func loadPHQ9(t *testing.T) types.Questionnaire {
	t.Helper()
	q, err := questionnaire.Load("../questionnaire/phq9.json")
	require.NoError(t, err)
	return q
}

// answer returns a copy of q with the given item indexes filled.
func answer(q types.Questionnaire, scores map[int]int) types.Questionnaire {
	out := q.Clone()
	for i, s := range scores {
		out[i].AnswerScore = intPtr(s)
		out[i].Reasoning = strPtr("patient statement")
	}
	return out
}

func toolReply(t *testing.T, q types.Questionnaire) modeltest.Reply {
	t.Helper()
	args, err := sonic.MarshalString(fillArgs{Items: q})
	require.NoError(t, err)
	return modeltest.ToolCall(fillQuestionnaireToolName, args)
}

func newProcessor(t *testing.T, m *modeltest.ScriptedModel, opts ...ProcessorOption) *ChatProcessor {
	t.Helper()
	opts = append([]ProcessorOption{WithRetry(2, time.Millisecond)}, opts...)
	p, err := NewChatProcessor(m, opts...)
	require.NoError(t, err)
	return p
}

func TestChatProcessor_FillsEvidencedItems(t *testing.T) {
	q := loadPHQ9(t)
	m := modeltest.New(toolReply(t, answer(q, map[int]int{0: 2, 2: 3, 6: 1})))

	out, err := newProcessor(t, m).Process(context.Background(), q, "Nothing is fun, I barely sleep and can't focus.")
	require.NoError(t, err)
	assert.Equal(t, []string{"phq9_2", "phq9_4", "phq9_5", "phq9_6", "phq9_8", "phq9_9", "phq9_10"}, out.RemainingIDs())
	assert.Equal(t, 3, *out[2].AnswerScore)
	assert.Equal(t, 10, len(q.Remaining()), "input must stay untouched")

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][0].Content, fillQuestionnaireToolName)
	assert.Contains(t, calls[0][1].Content, "Nothing is fun, I barely sleep and can't focus.")
}

func TestChatProcessor_AnsweredItemsAreImmutable(t *testing.T) {
	q := answer(loadPHQ9(t), map[int]int{0: 2})
	before, err := sonic.Marshal(q[0])
	require.NoError(t, err)

	rewritten := answer(q, map[int]int{0: 0, 1: 1})
	rewritten[0].Reasoning = strPtr("model changed its mind")

	p := newProcessor(t, modeltest.New(toolReply(t, rewritten), toolReply(t, rewritten)))
	for i := 0; i < 2; i++ {
		q, err = p.Process(context.Background(), q, "I feel a bit down sometimes.")
		require.NoError(t, err)
	}
	after, err := sonic.Marshal(q[0])
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, 1, *q[1].AnswerScore)
}

func TestChatProcessor_RetriesCallErrorsOnly(t *testing.T) {
	q := loadPHQ9(t)
	m := modeltest.New(
		modeltest.Fail(errors.New("502 bad gateway")),
		modeltest.Fail(errors.New("connection reset")),
		toolReply(t, answer(q, map[int]int{3: 2})),
	)
	out, err := newProcessor(t, m).Process(context.Background(), q, "I'm exhausted all the time.")
	require.NoError(t, err)
	assert.Equal(t, 3, m.CallCount())
	assert.Equal(t, 2, *out[3].AnswerScore)
}

func TestChatProcessor_RetryExhausted(t *testing.T) {
	q := loadPHQ9(t)
	m := modeltest.New(
		modeltest.Fail(errors.New("timeout")),
		modeltest.Fail(errors.New("timeout")),
		modeltest.Fail(errors.New("timeout")),
	)
	_, err := newProcessor(t, m).Process(context.Background(), q, "hello")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindCall, kind)
	assert.Equal(t, 3, m.CallCount())
}

func TestChatProcessor_ParseErrorsAreNotRetried(t *testing.T) {
	q := loadPHQ9(t)
	cases := map[string]modeltest.Reply{
		"malformed arguments": modeltest.ToolCall(fillQuestionnaireToolName, `{"items": [`),
		"prose":               modeltest.Content("The patient seems sad."),
		"shape mismatch":      toolReply(t, q[:5]),
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			m := modeltest.New(reply, reply, reply)
			out, err := newProcessor(t, m).Process(context.Background(), q, "hello")
			assert.Nil(t, out)
			var fe *Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, KindParse, fe.Kind)
			assert.False(t, fe.Retryable())
			assert.NotEmpty(t, fe.Message())
			assert.Equal(t, 1, m.CallCount())
		})
	}
}

func TestChatProcessor_EmptyResponse(t *testing.T) {
	q := loadPHQ9(t)
	cases := map[string]modeltest.Reply{
		"nil message":   {},
		"blank content": modeltest.Content(""),
		"no items":      modeltest.ToolCall(fillQuestionnaireToolName, `{}`),
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			m := modeltest.New(reply)
			_, err := newProcessor(t, m).Process(context.Background(), q, "hello")
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, KindEmptyResponse, kind)
			assert.Equal(t, 1, m.CallCount())
		})
	}
}

func TestChatProcessor_SchemaInPrompt(t *testing.T) {
	q := loadPHQ9(t)
	schema, err := questionnaire.Schema()
	require.NoError(t, err)
	m := modeltest.New(toolReply(t, q))
	_, err = newProcessor(t, m, WithSchema(schema)).Process(context.Background(), q, "hi")
	require.NoError(t, err)
	assert.Contains(t, m.Calls()[0][1].Content, "PRO_QUESTIONNAIRE schema JSON")
}

func TestChatProcessor_ContentFallbackAcceptsArrays(t *testing.T) {
	q := loadPHQ9(t)
	filled := answer(q, map[int]int{0: 2})
	arr, err := sonic.MarshalString(filled)
	require.NoError(t, err)
	wrapped, err := sonic.MarshalString(fillArgs{Items: filled})
	require.NoError(t, err)

	cases := map[string]string{
		"fenced array":        "```json\n" + arr + "\n```",
		"prose before fence":  "Here is the updated questionnaire:\n```json\n" + arr + "\n```\nLet me know if you need anything else.",
		"bare array in prose": "Updated: " + arr,
		"wrapped object":      "```\n" + wrapped + "\n```",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			m := modeltest.New(modeltest.Content(content))
			out, err := newProcessor(t, m).Process(context.Background(), q, "I don't enjoy anything lately.")
			require.NoError(t, err)
			require.NotNil(t, out[0].AnswerScore)
			assert.Equal(t, 2, *out[0].AnswerScore)
			assert.Equal(t, 9, len(out.Remaining()))
		})
	}
}

func TestChatProcessor_InvalidEditOfAnsweredItemKeepsNewEvidence(t *testing.T) {
	q := answer(loadPHQ9(t), map[int]int{0: 2})
	reply := answer(q, map[int]int{1: 1})
	reply[0].Reasoning = strPtr("")

	out, err := newProcessor(t, modeltest.New(toolReply(t, reply))).Process(context.Background(), q, "I feel down some days.")
	require.NoError(t, err)
	assert.Equal(t, "patient statement", *out[0].Reasoning)
	require.NotNil(t, out[1].AnswerScore)
	assert.Equal(t, 1, *out[1].AnswerScore)
}
