package fill

import (
	"errors"
	"fmt"

	"github.com/tbxark/phqintake/structured"
)

type Kind string

const (
	KindCall          Kind = "call"
	KindEmptyResponse Kind = "empty_response"
	KindParse         Kind = "parse"
)

// Error is the failure half of a turn result. Kind tells transient call
// failures apart from deterministic output problems.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fill %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Retryable() bool {
	return e.Kind == KindCall
}

// Message is the text shown to the patient. The questionnaire was left as it
// was, so resubmitting is always safe.
func (e *Error) Message() string {
	switch e.Kind {
	case KindCall:
		return fmt.Sprintf("Sorry, the assistant could not be reached (%v). Please send your answer again.", e.Err)
	case KindEmptyResponse:
		return "Sorry, the assistant returned an empty response. Please send your answer again."
	default:
		return fmt.Sprintf("Sorry, the assistant's answer could not be understood (%v). Please send your answer again.", e.Err)
	}
}

func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

func classify(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	switch {
	case errors.Is(err, structured.ErrEmptyResponse):
		return &Error{Kind: KindEmptyResponse, Err: err}
	case errors.Is(err, structured.ErrDecode):
		return &Error{Kind: KindParse, Err: err}
	default:
		return &Error{Kind: KindCall, Err: err}
	}
}
