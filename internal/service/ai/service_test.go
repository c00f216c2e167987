package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/seunghwan-dev/chingu/backend/internal/model/chat"
)

func TestBuildMessagesEmptyHistory(t *testing.T) {
	messages := BuildMessages("sys", nil, "hello")

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != schema.System || messages[0].Content != "sys" {
		t.Fatalf("unexpected leading message: %+v", messages[0])
	}
	if messages[1].Role != schema.User || messages[1].Content != "hello" {
		t.Fatalf("unexpected trailing message: %+v", messages[1])
	}
}

func TestBuildMessagesWithHistory(t *testing.T) {
	history := []chat.Turn{chat.UserTurn("a"), chat.AssistantTurn("b")}
	messages := BuildMessages("sys", history, "hello")

	wantRoles := []schema.RoleType{schema.System, schema.User, schema.Assistant, schema.User}
	wantContent := []string{"sys", "a", "b", "hello"}
	if len(messages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(messages))
	}
	for i := range messages {
		if messages[i].Role != wantRoles[i] || messages[i].Content != wantContent[i] {
			t.Fatalf("message %d = {%s %q}, want {%s %q}",
				i, messages[i].Role, messages[i].Content, wantRoles[i], wantContent[i])
		}
	}
}

func TestBuildMessagesReplacesLeadingSystemTurn(t *testing.T) {
	history := []chat.Turn{
		chat.SystemTurn("stale instruction"),
		chat.UserTurn("a"),
		chat.AssistantTurn("b"),
	}
	messages := BuildMessages("fresh instruction", history, "hello")

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Content != "fresh instruction" {
		t.Fatalf("system turn not replaced: %q", messages[0].Content)
	}
	for _, m := range messages[1:] {
		if m.Role == schema.System {
			t.Fatalf("duplicated system message: %+v", m)
		}
	}
}

func TestCompleteReturnsStampedReply(t *testing.T) {
	svc := NewService(&StaticChatModel{Reply: "hi there"}, 0)

	completion, err := svc.Complete(context.Background(), BuildMessages("sys", nil, "hello"))
	if err != nil {
		t.Fatalf("Complete err: %v", err)
	}
	if completion.Content != "hi there" {
		t.Fatalf("content = %q", completion.Content)
	}
	if completion.Role != chat.RoleAssistant {
		t.Fatalf("role = %q", completion.Role)
	}
	if _, err := time.Parse(time.RFC3339, completion.Timestamp); err != nil {
		t.Fatalf("timestamp %q not RFC3339: %v", completion.Timestamp, err)
	}
}

func TestCompleteWrapsUpstreamFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	svc := NewService(&StaticChatModel{Err: cause}, 0)

	_, err := svc.Complete(context.Background(), nil)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive")
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	svc := NewService(&StaticChatModel{Reply: ""}, 0)

	_, err := svc.Complete(context.Background(), nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestCompleteStreamOpenFailure(t *testing.T) {
	cause := errors.New("connection refused")
	svc := NewService(&StaticChatModel{Err: cause}, 0)

	_, err := svc.CompleteStream(context.Background(), nil)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}
