package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tbxark/phqintake/fill"
	"github.com/tbxark/phqintake/questionnaire"
	"github.com/tbxark/phqintake/types"
)

var (
	ErrEmptySubmission = errors.New("submission is empty")
	ErrCompleted       = errors.New("intake is already completed")
)

type Synthesizer interface {
	Synthesize(ctx context.Context, initialStatement string, remaining []string) string
}

// Intake drives the conversation: initial -> follow_up -> completed.
// Every transition takes a State and returns the next one; the only side
// effects are the model calls made by the processor and the synthesizer.
type Intake struct {
	pristine    types.Questionnaire
	processor   fill.Processor
	synthesizer Synthesizer
	unscored    []string
}

type IntakeOption func(*Intake)

// WithUnscoredItems replaces the ids excluded from the total score.
func WithUnscoredItems(ids ...string) IntakeOption {
	return func(d *Intake) {
		d.unscored = ids
	}
}

func NewIntake(pristine types.Questionnaire, processor fill.Processor, synthesizer Synthesizer, opts ...IntakeOption) *Intake {
	d := &Intake{
		pristine:    pristine.Clone(),
		processor:   processor,
		synthesizer: synthesizer,
		unscored:    []string{questionnaire.FunctionalImpairmentID},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Intake) Start() State {
	return d.StartWith(d.pristine)
}

// StartWith begins a session from an externally seeded questionnaire. A fully
// answered questionnaire goes straight to completed.
func (d *Intake) StartWith(q types.Questionnaire) State {
	st := State{
		Stage:         types.StageInitial,
		Questionnaire: q.Clone(),
	}
	if st.Questionnaire.Complete() {
		st.Stage = types.StageCompleted
	}
	return st
}

// Reset discards the conversation and returns a fresh session with the same id.
func (d *Intake) Reset(st State) State {
	next := d.Start()
	next.SessionID = st.SessionID
	slog.Debug("Intake reset", "session", st.SessionID, "from_stage", st.Stage)
	return next
}

// Submit processes one patient utterance. On any error the returned state is
// st itself: nothing is recorded and the patient may resubmit.
func (d *Intake) Submit(ctx context.Context, st State, text string) (State, error) {
	if strings.TrimSpace(text) == "" {
		return st, ErrEmptySubmission
	}
	switch st.Stage {
	case types.StageInitial, types.StageFollowUp:
	case types.StageCompleted:
		return st, ErrCompleted
	default:
		return st, fmt.Errorf("unknown stage %q", st.Stage)
	}

	slog.Debug("Processing patient statement", "session", st.SessionID, "stage", st.Stage, "remaining", len(st.Questionnaire.Remaining()))
	updated, err := d.processor.Process(ctx, st.Questionnaire, text)
	if err != nil {
		return st, err
	}

	next := st.Clone()
	next.Questionnaire = updated
	next.History = append(next.History, types.Turn{Role: types.RolePatient, Text: text})
	next.Stage = types.StageFollowUp
	slog.Debug("Processed patient statement", "session", st.SessionID, "answered", updated.Answered(), "items", len(updated))
	return d.Advance(ctx, next), nil
}

// Advance performs the follow_up action: complete the intake when nothing is
// left, otherwise ask one follow-up question unless one is already pending.
// The synthesizer runs at most once per distinct set of unanswered items; an
// unchanged set re-asks the cached question.
func (d *Intake) Advance(ctx context.Context, st State) State {
	if st.Stage != types.StageFollowUp {
		return st
	}
	next := st.Clone()
	remainingIDs := next.Questionnaire.RemainingIDs()
	if len(remainingIDs) == 0 {
		next.Stage = types.StageCompleted
		next.FollowUp = nil
		slog.Debug("Intake completed", "session", next.SessionID)
		return next
	}
	if last, ok := next.LastTurn(); ok && last.Role != types.RolePatient {
		return next
	}

	key := strings.Join(remainingIDs, ",")
	if next.FollowUp == nil || next.FollowUp.Key != key {
		question := d.synthesizer.Synthesize(ctx, next.InitialStatement(), next.Questionnaire.RemainingQuestions())
		next.FollowUp = &FollowUp{Key: key, Question: question}
		slog.Debug("Synthesized follow-up", "session", next.SessionID, "remaining", remainingIDs)
	}
	next.History = append(next.History, types.Turn{Role: types.RoleAssistant, Text: next.FollowUp.Question})
	return next
}

// Score reports the aggregate once the intake is completed.
func (d *Intake) Score(st State) (Result, bool) {
	if st.Stage != types.StageCompleted {
		return Result{}, false
	}
	total, ok := st.Questionnaire.Total(d.unscored...)
	if !ok {
		return Result{}, false
	}
	return Result{
		Total:    total,
		Severity: types.SeverityOf(total),
		Answered: st.Questionnaire.Answered(),
		Items:    len(st.Questionnaire),
	}, true
}
