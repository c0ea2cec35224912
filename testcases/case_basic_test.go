package testcases

import (
	"context"
	"testing"

	"github.com/tbxark/phqintake/types"
)

// TestBasicConversation fills the questionnaire over two patient turns.
func TestBasicConversation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	intake := NewTestIntake(t)

	st := intake.Start()
	st, err := intake.Submit(ctx, st, "For the past couple of weeks I haven't enjoyed anything, nearly every day. I wake up at 3am almost every night and can't fall back asleep.")
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if st.Stage != types.StageFollowUp {
		t.Fatalf("expected follow_up, got %s", st.Stage)
	}
	if !answered(st, "phq9_1") {
		t.Error("expected phq9_1 (interest or pleasure) to be answered")
	}
	if !answered(st, "phq9_3") {
		t.Error("expected phq9_3 (sleep) to be answered")
	}
	if st.LastQuestion() == "" {
		t.Error("expected a follow-up question")
	}
	t.Logf("follow-up: %s", st.LastQuestion())
	t.Logf("remaining: %v", st.Questionnaire.RemainingIDs())

	st, err = intake.Submit(ctx, st, "I feel down and hopeless most days and tired all the time. I eat much less than usual. I feel like I've let my family down, I can't concentrate on reading, and I've been moving slower than normal. I have never had thoughts of hurting myself. All of this makes work very difficult.")
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	t.Logf("stage: %s, remaining: %v", st.Stage, st.Questionnaire.RemainingIDs())
	if st.Questionnaire.Answered() < 8 {
		t.Errorf("expected most items to be answered, got %d", st.Questionnaire.Answered())
	}
	if st.Stage == types.StageCompleted {
		result, ok := intake.Score(st)
		if !ok {
			t.Fatal("completed intake must have a score")
		}
		t.Logf("total: %d (%s)", result.Total, result.Severity)
	}
}
