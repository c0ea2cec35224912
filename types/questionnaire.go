package types

import "slices"

func (it Item) Answered() bool {
	return it.AnswerScore != nil
}

// SelectedOption returns the text of the option matching AnswerScore.
func (it Item) SelectedOption() (string, bool) {
	if it.AnswerScore == nil {
		return "", false
	}
	for _, opt := range it.Options {
		if opt.Score == *it.AnswerScore {
			return opt.Text, true
		}
	}
	return "", false
}

func (it Item) PermitsScore(score int) bool {
	for _, opt := range it.Options {
		if opt.Score == score {
			return true
		}
	}
	return false
}

func (it Item) Clone() Item {
	out := it
	out.Options = slices.Clone(it.Options)
	if it.AnswerScore != nil {
		score := *it.AnswerScore
		out.AnswerScore = &score
	}
	if it.Reasoning != nil {
		reasoning := *it.Reasoning
		out.Reasoning = &reasoning
	}
	return out
}

// Clone returns a deep copy so that callers can hand out questionnaires
// without sharing score or reasoning pointers.
func (q Questionnaire) Clone() Questionnaire {
	if q == nil {
		return nil
	}
	out := make(Questionnaire, len(q))
	for i, it := range q {
		out[i] = it.Clone()
	}
	return out
}

func (q Questionnaire) Remaining() []Item {
	var out []Item
	for _, it := range q {
		if !it.Answered() {
			out = append(out, it)
		}
	}
	return out
}

func (q Questionnaire) RemainingIDs() []string {
	var out []string
	for _, it := range q {
		if !it.Answered() {
			out = append(out, it.ID)
		}
	}
	return out
}

func (q Questionnaire) RemainingQuestions() []string {
	var out []string
	for _, it := range q {
		if !it.Answered() {
			out = append(out, it.Question)
		}
	}
	return out
}

func (q Questionnaire) Answered() int {
	n := 0
	for _, it := range q {
		if it.Answered() {
			n++
		}
	}
	return n
}

func (q Questionnaire) Complete() bool {
	return len(q) > 0 && q.Answered() == len(q)
}

func (q Questionnaire) Find(id string) (Item, bool) {
	for _, it := range q {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Total sums AnswerScore over every item except the unscored ids.
// ok is false while any item is still unanswered.
func (q Questionnaire) Total(unscored ...string) (total int, ok bool) {
	if !q.Complete() {
		return 0, false
	}
	for _, it := range q {
		if slices.Contains(unscored, it.ID) {
			continue
		}
		total += *it.AnswerScore
	}
	return total, true
}
