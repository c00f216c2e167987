package ai

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// StaticChatModel is a canned chat model for tests and local development
// without upstream credentials. It implements model.BaseChatModel.
type StaticChatModel struct {
	Reply  string
	Chunks []string
	Err    error
	// FailMidStream delivers Chunks first and injects Err afterwards,
	// simulating an upstream stream breaking mid-transfer.
	FailMidStream bool
}

var _ model.BaseChatModel = (*StaticChatModel)(nil)

func (m *StaticChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.AssistantMessage(m.Reply, nil), nil
}

func (m *StaticChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if m.Err != nil && !m.FailMidStream {
		return nil, m.Err
	}

	reader, writer := schema.Pipe[*schema.Message](len(m.Chunks) + 1)
	go func() {
		defer writer.Close()
		for _, chunk := range m.Chunks {
			if closed := writer.Send(schema.AssistantMessage(chunk, nil), nil); closed {
				return
			}
		}
		if m.FailMidStream && m.Err != nil {
			writer.Send(nil, m.Err)
		}
	}()
	return reader, nil
}
