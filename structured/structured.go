package structured

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

var (
	// ErrModelCall wraps transport and provider failures. Only these are worth retrying.
	ErrModelCall = errors.New("model call failed")
	// ErrEmptyResponse means the model answered with neither a tool call nor content.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrDecode means the model answered but the payload does not fit the output type.
	ErrDecode = errors.New("decode model output failed")
)

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {

	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}, nil
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelCall, err)
	}
	if response == nil {
		return nil, ErrEmptyResponse
	}

	if len(response.ToolCalls) == 0 && strings.TrimSpace(response.Content) == "" {
		return nil, ErrEmptyResponse
	}
	payload := ""
	if len(response.ToolCalls) > 0 {
		payload = response.ToolCalls[0].Function.Arguments
		if strings.TrimSpace(payload) == "" {
			return nil, ErrEmptyResponse
		}
	} else {
		// Some providers ignore forced tool choice and answer in plain content.
		payload = extractJSONBlock(stripCodeFences(response.Content))
		if payload == "" {
			return nil, fmt.Errorf("%w: no JSON found in content: %s", ErrDecode, truncate(response.Content, 512))
		}
	}

	var result TOutput
	if err := sonic.UnmarshalString(payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %w: %s", ErrDecode, err, truncate(payload, 512))
	}
	return &result, nil
}

// stripCodeFences drops markdown fence lines and keeps everything else,
// including prose around the fenced block.
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// extractJSONBlock returns the first balanced object or array in s, or "".
func extractJSONBlock(s string) string {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
