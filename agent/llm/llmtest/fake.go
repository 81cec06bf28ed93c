// Package llmtest provides a scripted chat model for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel replays Responses in order. Err, when set, fails every call.
type ChatModel struct {
	Responses []string
	Err       error

	mu     sync.Mutex
	idx    int
	inputs [][]*schema.Message
}

var _ einomodel.ToolCallingChatModel = (*ChatModel)(nil)

func (f *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputs = append(f.inputs, input)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.idx >= len(f.Responses) {
		return nil, errors.New("no fake response left")
	}
	msg := schema.AssistantMessage(f.Responses[f.idx], nil)
	f.idx++
	return msg, nil
}

func (f *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *ChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func (f *ChatModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// LastInput returns the messages of the most recent call.
func (f *ChatModel) LastInput() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return nil
	}
	return f.inputs[len(f.inputs)-1]
}
