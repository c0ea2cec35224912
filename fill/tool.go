package fill

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/phqintake/patch"
	"github.com/tbxark/phqintake/structured"
	"github.com/tbxark/phqintake/types"
)

const (
	fillQuestionnaireToolName        = "fill_questionnaire"
	fillQuestionnaireToolDescription = "Return the complete PRO questionnaire with answer_score and reasoning filled for every previously null item that the patient statement gives clear evidence for."
)

// DefaultFillSystemPrompt is the instruction sent with every turn. The
// template may contain a single "%s" placeholder for the tool name.
const DefaultFillSystemPrompt = `# ROLE & OBJECTIVE
You are a highly meticulous and objective clinical data assistant. Your sole purpose is to analyze a patient's unstructured statement and accurately populate a structured PHQ-9 questionnaire based on the evidence within their text. Be precise and never make assumptions.

# INPUT
1. PRO_QUESTIONNAIRE (JSON): the entire questionnaire. Some items may already be answered from earlier turns.
2. PATIENT_STATEMENT (TEXT): the raw, unstructured text of what the patient said.

# INSTRUCTIONS
1. Identify nulls: find every item whose answer_score is null.
2. Find evidence: for each null item, look for phrases or sentences in the PATIENT_STATEMENT that directly address it.
3. Select score and fill: with clear evidence, choose the most appropriate score among the item's options and set answer_score and reasoning (a short quote or paraphrase of the patient's own words).
4. Never change existing answers: an item that already has an answer_score must be returned exactly as given, even if the new statement seems contradictory.
5. If still unclear: leave answer_score and reasoning null. Do not guess.

# OUTPUT
Call the '%s' tool with the complete questionnaire: every item, in the original order, with id, question and options copied unchanged.`

const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2
	DefaultBackoff    = 500 * time.Millisecond
)

type fillArgs struct {
	Items types.Questionnaire `json:"items" jsonschema:"required,description=The complete questionnaire with every item in the original order"`
}

// UnmarshalJSON also accepts a bare item array, the shape models tend to
// answer with when they skip the tool call and reply in content.
func (a *fillArgs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return sonic.Unmarshal(data, &a.Items)
	}
	type wrapped fillArgs
	return sonic.Unmarshal(data, (*wrapped)(a))
}

type processorOptions struct {
	systemPrompt string
	schema       string
	timeout      time.Duration
	maxRetries   int
	backoff      time.Duration
}

type ProcessorOption func(*processorOptions)

// WithSystemPrompt overrides DefaultFillSystemPrompt.
func WithSystemPrompt(systemPrompt string) ProcessorOption {
	return func(o *processorOptions) {
		o.systemPrompt = systemPrompt
	}
}

// WithSchema embeds the questionnaire JSON schema in every request.
func WithSchema(schema string) ProcessorOption {
	return func(o *processorOptions) {
		o.schema = schema
	}
}

// WithTimeout bounds a single model call.
func WithTimeout(timeout time.Duration) ProcessorOption {
	return func(o *processorOptions) {
		o.timeout = timeout
	}
}

// WithRetry sets how often a failed model call is repeated and the base
// delay, doubled after every attempt. Parse failures are never retried.
func WithRetry(maxRetries int, backoff time.Duration) ProcessorOption {
	return func(o *processorOptions) {
		o.maxRetries = maxRetries
		o.backoff = backoff
	}
}

type ChatProcessor struct {
	chain      *structured.Chain[*types.FillRequest, fillArgs]
	schema     string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

var _ Processor = (*ChatProcessor)(nil)

func NewChatProcessor(chatModel model.ToolCallingChatModel, opts ...ProcessorOption) (*ChatProcessor, error) {
	options := processorOptions{
		systemPrompt: DefaultFillSystemPrompt,
		timeout:      DefaultTimeout,
		maxRetries:   DefaultMaxRetries,
		backoff:      DefaultBackoff,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.maxRetries < 0 {
		options.maxRetries = 0
	}
	systemPrompt := options.systemPrompt
	if strings.Contains(systemPrompt, "%s") {
		systemPrompt = fmt.Sprintf(systemPrompt, fillQuestionnaireToolName)
	}
	chain, err := structured.NewChain[*types.FillRequest, fillArgs](
		chatModel,
		buildFillPrompt(systemPrompt),
		fillQuestionnaireToolName,
		fillQuestionnaireToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ChatProcessor{
		chain:      chain,
		schema:     options.schema,
		timeout:    options.timeout,
		maxRetries: options.maxRetries,
		backoff:    options.backoff,
	}, nil
}

func (p *ChatProcessor) Process(ctx context.Context, q types.Questionnaire, patientText string) (types.Questionnaire, error) {
	req := &types.FillRequest{
		Questionnaire:    q,
		Schema:           p.schema,
		PatientStatement: patientText,
	}

	var out *fillArgs
	for attempt := 0; ; attempt++ {
		slog.Debug("Requesting questionnaire fill", "attempt", attempt+1, "remaining", len(q.Remaining()))
		result, err := p.invoke(ctx, req)
		if err == nil {
			out = result
			break
		}
		fe := classify(err)
		if !fe.Retryable() || attempt >= p.maxRetries || ctx.Err() != nil {
			return nil, fe
		}
		delay := p.backoff << attempt
		slog.Warn("Questionnaire fill failed, retrying", "attempt", attempt+1, "delay", delay, "error", err)
		if wErr := wait(ctx, delay); wErr != nil {
			return nil, &Error{Kind: KindCall, Err: wErr}
		}
	}

	if out == nil || out.Items == nil {
		return nil, &Error{Kind: KindEmptyResponse, Err: structured.ErrEmptyResponse}
	}
	if ids := patch.OverwriteAttempts(q, out.Items); len(ids) > 0 {
		slog.Warn("Model tried to change answered items, keeping existing answers", "items", ids)
	}
	merged, ops, err := patch.Merge(q, out.Items)
	if err != nil {
		return nil, &Error{Kind: KindParse, Err: err}
	}
	slog.Debug("Merged questionnaire fill", "ops", ops, "answered", merged.Answered())
	return merged, nil
}

func (p *ChatProcessor) invoke(ctx context.Context, req *types.FillRequest) (*fillArgs, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.chain.Invoke(ctx, req)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func buildFillPrompt(systemPrompt string) structured.PromptBuilder[*types.FillRequest] {
	return func(ctx context.Context, req *types.FillRequest) ([]*schema.Message, error) {
		message, err := types.FormatFillRequest(req)
		if err != nil {
			return nil, fmt.Errorf("convert to prompt message failed: %w", err)
		}
		return []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(message),
		}, nil
	}
}
