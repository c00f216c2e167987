package ai

import (
	"context"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/seunghwan-dev/chingu/backend/internal/model/chat"
)

// Service is the gateway to the external completion service. It performs a
// single attempt per call; retries, if desired, belong to the caller.
type Service struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
}

// NewService wraps a chat model. timeout bounds the blocking Complete call;
// zero disables the bound. Streaming calls are bounded by the caller's
// context instead, so a long generation is not cut off mid-stream.
func NewService(chatModel model.BaseChatModel, timeout time.Duration) *Service {
	return &Service{chatModel: chatModel, timeout: timeout}
}

// Complete invokes the completion service once, synchronously, with the
// full message list.
func (s *Service) Complete(ctx context.Context, messages []*schema.Message) (chat.Completion, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return chat.Completion{}, &UpstreamError{Err: err}
	}
	if response == nil || response.Content == "" {
		return chat.Completion{}, ErrEmptyResponse
	}

	log.Printf("[ai] generated response, length=%d", len(response.Content))
	return chat.NewCompletion(response.Content), nil
}

// CompleteStream opens a streaming call and returns the chunk reader.
// The sequence is finite and not restartable; closing the reader releases
// the upstream connection when the consumer goes away mid-transfer.
func (s *Service) CompleteStream(ctx context.Context, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	stream, err := s.chatModel.Stream(ctx, messages)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	return stream, nil
}
