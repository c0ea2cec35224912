package testcases

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"
)

// TestAnsweredItemsSurviveContradiction checks that a later statement that
// contradicts an earlier one leaves the earlier answer untouched.
func TestAnsweredItemsSurviveContradiction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	intake := NewTestIntake(t)

	st, err := intake.Submit(ctx, intake.Start(), "I've been sleeping terribly, nearly every night I lie awake for hours.")
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	sleep, ok := st.Questionnaire.Find("phq9_3")
	if !ok || !sleep.Answered() {
		t.Skipf("model did not answer phq9_3, remaining %v", st.Questionnaire.RemainingIDs())
	}
	before, _ := sonic.MarshalString(sleep)

	st, err = intake.Submit(ctx, st, "Actually my sleep is perfectly fine. I do feel tired a lot though.")
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	sleep, _ = st.Questionnaire.Find("phq9_3")
	after, _ := sonic.MarshalString(sleep)
	if before != after {
		t.Errorf("answered item changed:\nbefore %s\nafter  %s", before, after)
	}
}
