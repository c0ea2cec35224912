package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/phqintake/command"
	"github.com/tbxark/phqintake/fill"
	"github.com/tbxark/phqintake/types"
)

const DefaultGreeting = "Hello. Over the last two weeks, how have you been feeling? Tell me in your own words."

var _ adk.Agent = (*Agent)(nil)

// Agent exposes an Intake as an adk agent. Every run loads the session routed
// by the context, handles the last user message and stores the new state.
type Agent struct {
	name        string
	description string
	greeting    string
	intake      *Intake
	sessions    StateReadWriter
	parser      command.Parser
	reporter    Reporter
}

type AgentOption func(*Agent)

func WithCommandParser(parser command.Parser) AgentOption {
	return func(a *Agent) {
		a.parser = parser
	}
}

func WithReporter(reporter Reporter) AgentOption {
	return func(a *Agent) {
		a.reporter = reporter
	}
}

func WithGreeting(greeting string) AgentOption {
	return func(a *Agent) {
		if greeting != "" {
			a.greeting = greeting
		}
	}
}

func NewAgent(name, description string, intake *Intake, sessions StateReadWriter, opts ...AgentOption) *Agent {
	a := &Agent{
		name:        name,
		description: description,
		greeting:    DefaultGreeting,
		intake:      intake,
		sessions:    sessions,
		parser:      command.NewLocalParser(),
		reporter:    NopReporter{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if input == nil || len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("no messages in input"),
			})
			return
		}
		resp, err := a.Handle(ctx, input.Messages[len(input.Messages)-1].Content)
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("intake failed: %w", err),
			})
			return
		}
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message: &schema.Message{
						Role:    schema.Assistant,
						Content: resp.Message,
					},
					Role: schema.Assistant,
				},
			},
		})
	}()
	return iter
}

// Handle runs one user input against the session in ctx. Errors from the
// model become a reply; only storage failures are returned as errors.
func (a *Agent) Handle(ctx context.Context, text string) (*Response, error) {
	st, err := a.sessions.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	cmd, err := a.parser.ParseCommand(ctx, text)
	if err != nil {
		slog.Warn("Command parsing failed, treating input as patient text", "error", err)
		cmd = command.None
	}
	slog.Debug("Parsed command", "session", st.SessionID, "command", cmd)

	switch cmd {
	case command.Reset:
		return a.reset(ctx, st)
	case command.Show:
		return &Response{Message: a.Summary(st), State: st}, nil
	case command.Quit:
		return &Response{
			Message:  "Goodbye. Your answers have been saved.",
			State:    st,
			Metadata: map[string]string{"command": string(command.Quit)},
		}, nil
	}

	next, err := a.intake.Submit(ctx, st, text)
	if err != nil {
		return a.handleError(err, st), nil
	}
	if err := a.sessions.Write(ctx, next); err != nil {
		return nil, fmt.Errorf("write session: %w", err)
	}

	if next.Stage != types.StageCompleted {
		return &Response{Message: next.LastQuestion(), State: next}, nil
	}
	if result, ok := a.intake.Score(next); ok && st.Stage != types.StageCompleted {
		if rErr := a.reporter.Completed(ctx, next, result); rErr != nil {
			slog.Warn("Reporting completed intake failed", "session", next.SessionID, "error", rErr)
		}
	}
	return &Response{Message: a.Summary(next), State: next}, nil
}

// Reset starts the session in ctx over.
func (a *Agent) Reset(ctx context.Context) (*Response, error) {
	st, err := a.sessions.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return a.reset(ctx, st)
}

func (a *Agent) reset(ctx context.Context, st State) (*Response, error) {
	next := a.intake.Reset(st)
	if err := a.sessions.Write(ctx, next); err != nil {
		return nil, fmt.Errorf("write session: %w", err)
	}
	return &Response{
		Message:  a.greeting,
		State:    next,
		Metadata: map[string]string{"command": string(command.Reset)},
	}, nil
}

// Opening is the first message shown for st: the greeting for a new
// session, the pending question when resuming, the score once completed.
func (a *Agent) Opening(st State) string {
	if st.Stage == types.StageCompleted {
		return a.Summary(st)
	}
	if q := st.LastQuestion(); q != "" {
		return q
	}
	return a.greeting
}

// Summary describes the session: the score once completed, progress otherwise.
func (a *Agent) Summary(st State) string {
	if result, ok := a.intake.Score(st); ok {
		return fmt.Sprintf("Thank you. The questionnaire is complete. PHQ-9 total: %d (%s).", result.Total, result.Severity)
	}
	return fmt.Sprintf("%d of %d questions answered so far.", st.Questionnaire.Answered(), len(st.Questionnaire))
}

func (a *Agent) handleError(err error, st State) *Response {
	resp := &Response{
		State: st,
		Metadata: map[string]string{
			"error": err.Error(),
		},
	}
	var fe *fill.Error
	switch {
	case errors.Is(err, ErrEmptySubmission):
		resp.Message = "Please tell me a little about how you have been feeling."
	case errors.Is(err, ErrCompleted):
		resp.Message = a.Summary(st) + " Type /reset to start a new questionnaire."
	case errors.As(err, &fe):
		resp.Message = fe.Message()
		resp.Metadata["error_kind"] = string(fe.Kind)
	default:
		resp.Message = fmt.Sprintf("Sorry, something went wrong while processing your answer: %s", err.Error())
	}
	slog.Debug("Turn failed, state unchanged", "session", st.SessionID, "error", err)
	return resp
}
