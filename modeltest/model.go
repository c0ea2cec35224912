// Package modeltest provides a scripted chat model for offline tests.
package modeltest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var ErrScriptExhausted = errors.New("modeltest: no scripted reply left")

type Reply struct {
	Message *schema.Message
	Err     error
}

func ToolCall(name, arguments string) Reply {
	return Reply{Message: &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:   "call_" + name,
			Type: "function",
			Function: schema.FunctionCall{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}}
}

func Content(text string) Reply {
	return Reply{Message: schema.AssistantMessage(text, nil)}
}

func Fail(err error) Reply {
	return Reply{Err: err}
}

// ScriptedModel replays replies in order and records every request.
type ScriptedModel struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]*schema.Message
	tools   [][]*schema.ToolInfo
}

var _ model.ToolCallingChatModel = (*ScriptedModel)(nil)

func New(replies ...Reply) *ScriptedModel {
	return &ScriptedModel{replies: replies}
}

func (m *ScriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := model.GetCommonOptions(&model.Options{}, opts...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, input)
	m.tools = append(m.tools, options.Tools)
	if len(m.replies) == 0 {
		return nil, ErrScriptExhausted
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply.Message, reply.Err
}

func (m *ScriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ScriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func (m *ScriptedModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Tools returns the tools offered on the i-th call.
func (m *ScriptedModel) Tools(i int) []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools[i]
}
