package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/phqintake/types"
)

var ErrEmptyQuestion = errors.New("model returned an empty follow-up question")

// DefaultFollowUpSystemPromptTemplate is the default system prompt template used by
// ChatGenerator. The template may contain a single "%s" placeholder for the language.
const DefaultFollowUpSystemPromptTemplate = `You are a skilled and empathetic counselor. Your task is to guide a conversation to gather more information about a patient's well-being without making it feel like a test.

The patient has already described how they feel and part of the PHQ-9 survey has been filled from it. Now ask about the topics the patient has not mentioned yet.

- Review the REMAINING_QUESTIONS that still need answers.
- Do NOT ask them one by one and do not list them.
- Synthesize their core themes (for example sleep, energy, self-perception) into a single, open-ended, conversational follow-up question.
- Encourage the patient to speak freely about these topics.
- Briefly acknowledge the patient's initial statement so the conversation flows naturally.
- Reply with the question only, in %s.

Example:
PATIENT'S INITIAL STATEMENT: "I have no appetite and I can't focus on anything."
REMAINING_QUESTIONS: trouble sleeping; feeling tired or having little energy; feeling down or hopeless
RESPONSE: Thank you for telling me about your appetite and concentration. Could you also share how you have been sleeping lately, and whether you have been feeling more tired or low than usual?
`

type generatorOptions struct {
	lang                 string
	systemPrompt         string
	systemPromptTemplate string
	timeout              time.Duration
}

type GeneratorOption func(*generatorOptions)

// WithLang sets the language used by the default system prompt template.
func WithLang(lang string) GeneratorOption {
	return func(o *generatorOptions) {
		o.lang = lang
	}
}

// WithSystemPrompt overrides the system prompt used by ChatGenerator.
func WithSystemPrompt(systemPrompt string) GeneratorOption {
	return func(o *generatorOptions) {
		o.systemPrompt = systemPrompt
	}
}

// WithSystemPromptTemplate overrides the system prompt template used by ChatGenerator.
// If the template contains "%s", it will be formatted with the language.
func WithSystemPromptTemplate(systemPromptTemplate string) GeneratorOption {
	return func(o *generatorOptions) {
		o.systemPromptTemplate = systemPromptTemplate
	}
}

func WithTimeout(timeout time.Duration) GeneratorOption {
	return func(o *generatorOptions) {
		o.timeout = timeout
	}
}

type ChatGenerator struct {
	Lang                 string
	systemPrompt         string
	systemPromptTemplate string
	timeout              time.Duration
	chatModel            model.BaseChatModel
}

func NewChatGenerator(chatModel model.BaseChatModel, opts ...GeneratorOption) *ChatGenerator {
	options := generatorOptions{
		lang:                 "English",
		systemPromptTemplate: DefaultFollowUpSystemPromptTemplate,
		timeout:              30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.lang == "" {
		options.lang = "English"
	}
	return &ChatGenerator{
		Lang:                 options.lang,
		systemPrompt:         options.systemPrompt,
		systemPromptTemplate: options.systemPromptTemplate,
		timeout:              options.timeout,
		chatModel:            chatModel,
	}
}

func (g *ChatGenerator) GenerateFollowUp(ctx context.Context, req *types.FollowUpRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	response, err := g.chatModel.Generate(ctx, g.buildFollowUpPrompt(req))
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyQuestion
	}
	return strings.TrimSpace(response.Content), nil
}

func (g *ChatGenerator) buildFollowUpPrompt(req *types.FollowUpRequest) []*schema.Message {
	systemPrompt := g.systemPrompt
	if systemPrompt == "" {
		tpl := g.systemPromptTemplate
		if tpl == "" {
			tpl = DefaultFollowUpSystemPromptTemplate
		}
		if strings.Contains(tpl, "%s") {
			systemPrompt = fmt.Sprintf(tpl, g.Lang)
		} else {
			systemPrompt = tpl
		}
	}
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(types.FormatFollowUpRequest(req)),
	}
}
