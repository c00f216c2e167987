package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seunghwan-dev/chingu/backend/internal/observability"
	"github.com/seunghwan-dev/chingu/backend/internal/prompt"
	"github.com/seunghwan-dev/chingu/backend/internal/service/ai"
	chatservice "github.com/seunghwan-dev/chingu/backend/internal/service/chat"
	"github.com/seunghwan-dev/chingu/backend/internal/service/session"
)

const testTemplate = "You are {bot_name}, a {bot_gender} friend of a {user_age} year old."

var errQuota = errors.New("quota exceeded")

func setupRouter(t *testing.T, model *ai.StaticChatModel) (*chi.Mux, *session.MemoryStore) {
	t.Helper()
	tmpl, err := prompt.Parse(testTemplate)
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}

	store := session.NewMemoryStore(0)
	chatSvc := chatservice.NewService(tmpl, store, ai.NewService(model, 0))
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	r := chi.NewRouter()
	New(chatSvc, metrics).RegisterRoutes(r)
	return r, store
}

func postJSON(t *testing.T, r http.Handler, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func validBody() map[string]any {
	return map[string]any{
		"message":    "hello",
		"user_age":   24,
		"bot_gender": "female",
		"bot_name":   "Minji",
	}
}

func TestChatReturnsCompletion(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{Reply: "hi there"})

	resp := postJSON(t, r, "/chat", validBody())
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got struct {
		Content   string `json:"content"`
		Role      string `json:"role"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.Content != "hi there" || got.Role != "assistant" {
		t.Fatalf("unexpected body: %+v", got)
	}
	if _, err := time.Parse(time.RFC3339, got.Timestamp); err != nil {
		t.Fatalf("timestamp %q not RFC3339: %v", got.Timestamp, err)
	}
}

func TestChatWithExplicitHistory(t *testing.T) {
	r, store := setupRouter(t, &ai.StaticChatModel{Reply: "ok"})

	body := validBody()
	body["history"] = []map[string]string{
		{"role": "user", "content": "a"},
		{"role": "assistant", "content": "b"},
	}

	resp := postJSON(t, r, "/chat", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if store.Len() != 0 {
		t.Fatalf("stateless request mutated the store: %d sessions", store.Len())
	}
}

func TestChatRejectsMissingMessage(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{Reply: "ok"})

	body := validBody()
	body["message"] = ""
	if resp := postJSON(t, r, "/chat", body); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatRejectsMalformedRole(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{Reply: "ok"})

	body := validBody()
	body["history"] = []map[string]string{{"role": "robot", "content": "a"}}
	if resp := postJSON(t, r, "/chat", body); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatRejectsInvalidPersona(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{Reply: "ok"})

	body := validBody()
	body["user_age"] = 0
	if resp := postJSON(t, r, "/chat", body); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatUpstreamFailureIsGeneric(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{Err: errQuota})

	resp := postJSON(t, r, "/chat", validBody())
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("quota")) {
		t.Fatalf("upstream detail leaked to client: %s", resp.Body.String())
	}
}

func TestChatStreamEmitsFragmentsAndSentinel(t *testing.T) {
	r, store := setupRouter(t, &ai.StaticChatModel{Chunks: []string{"h", "i"}})

	body := validBody()
	body["session_id"] = "s1"

	resp := postJSON(t, r, "/chat/stream", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	want := "data: h\n\ndata: i\n\ndata: [DONE]\n\n"
	if resp.Body.String() != want {
		t.Fatalf("stream body = %q, want %q", resp.Body.String(), want)
	}

	history, ok := store.Get("s1")
	if !ok {
		t.Fatal("session not created")
	}
	if len(history) != 3 || history[2].Content != "hi" {
		t.Fatalf("unexpected history after stream: %+v", history)
	}
}

func TestChatStreamOpenFailure(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{Err: errQuota})

	resp := postJSON(t, r, "/chat/stream", validBody())
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestChatStreamMidFailureOmitsSentinel(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{
		Chunks:        []string{"par"},
		Err:           errQuota,
		FailMidStream: true,
	})

	resp := postJSON(t, r, "/chat/stream", validBody())
	body := resp.Body.String()
	if body != "data: par\n\n" {
		t.Fatalf("stream body = %q", body)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{Reply: "hi there"})

	if resp := doGet(r, "/sessions/unknown/history"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.Code)
	}

	body := validBody()
	body["session_id"] = "s1"
	if resp := postJSON(t, r, "/chat", body); resp.Code != http.StatusOK {
		t.Fatalf("chat setup failed: %d", resp.Code)
	}

	resp := doGet(r, "/sessions/s1/history")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got struct {
		ID    string `json:"id"`
		Turns []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if got.ID != "s1" {
		t.Fatalf("id = %q", got.ID)
	}
	if len(got.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got.Turns))
	}
	if got.Turns[0].Role != "system" {
		t.Fatalf("first turn = %+v", got.Turns[0])
	}
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter(t, &ai.StaticChatModel{Reply: "ok"})

	resp := postJSON(t, r, "/sessions", map[string]any{})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var got map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["session_id"] == "" {
		t.Fatal("empty session_id")
	}
}

func doGet(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}
