package agent

import (
	"slices"

	"github.com/tbxark/phqintake/types"
)

// FollowUp remembers the last synthesized question and the set of
// unanswered item ids it was asked for.
type FollowUp struct {
	Key      string `json:"key"`
	Question string `json:"question"`
}

// State is one conversation. Transitions never modify a State in place; they
// return a new value.
type State struct {
	SessionID     string              `json:"session_id,omitempty"`
	Stage         types.Stage         `json:"stage"`
	History       []types.Turn        `json:"history"`
	Questionnaire types.Questionnaire `json:"questionnaire"`
	FollowUp      *FollowUp           `json:"follow_up,omitempty"`
}

func (s State) Clone() State {
	out := s
	out.History = slices.Clone(s.History)
	out.Questionnaire = s.Questionnaire.Clone()
	if s.FollowUp != nil {
		f := *s.FollowUp
		out.FollowUp = &f
	}
	return out
}

func (s State) LastTurn() (types.Turn, bool) {
	if len(s.History) == 0 {
		return types.Turn{}, false
	}
	return s.History[len(s.History)-1], true
}

// InitialStatement is the first thing the patient said in this session.
func (s State) InitialStatement() string {
	for _, t := range s.History {
		if t.Role == types.RolePatient {
			return t.Text
		}
	}
	return ""
}

// LastQuestion returns the most recent assistant turn.
func (s State) LastQuestion() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == types.RoleAssistant {
			return s.History[i].Text
		}
	}
	return ""
}

type Result struct {
	Total    int            `json:"total"`
	Severity types.Severity `json:"severity"`
	Answered int            `json:"answered"`
	Items    int            `json:"items"`
}

type Response struct {
	Message  string            `json:"message,omitempty"`
	State    State             `json:"state"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
