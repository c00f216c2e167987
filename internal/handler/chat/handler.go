package chat

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seunghwan-dev/chingu/backend/internal/observability"
	"github.com/seunghwan-dev/chingu/backend/internal/service/ai"
	chatService "github.com/seunghwan-dev/chingu/backend/internal/service/chat"
	"github.com/seunghwan-dev/chingu/backend/internal/service/session"
	"github.com/seunghwan-dev/chingu/backend/pkg/utils"
)

// Handler exposes the chat API over HTTP.
type Handler struct {
	chatSvc *chatService.Service
	metrics *observability.Metrics
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, metrics *observability.Metrics) *Handler {
	return &Handler{chatSvc: chatSvc, metrics: metrics}
}

// RegisterRoutes registers the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/chat/stream", h.handleChatStream)
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}/history", h.handleHistory)
}

// handleChat serves the synchronous exchange: one request, one full reply.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeChatRequest(r.Body)
	if err != nil {
		h.metrics.ChatRequests.WithLabelValues(observability.TransportSync, observability.OutcomeClientError).Inc()
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	started := time.Now()
	completion, err := h.chatSvc.Complete(r.Context(), req)
	if err != nil {
		status, message, outcome := classifyError(err)
		h.metrics.ChatRequests.WithLabelValues(observability.TransportSync, outcome).Inc()
		log.Printf("[chat] exchange failed: %v", err)
		utils.RespondError(w, status, message)
		return
	}

	h.metrics.ObserveUpstreamLatency(time.Since(started))
	h.metrics.ChatRequests.WithLabelValues(observability.TransportSync, observability.OutcomeOK).Inc()
	h.metrics.ActiveSessions.Set(float64(h.chatSvc.Store().Len()))
	utils.RespondJSON(w, http.StatusOK, completion)
}

// handleChatStream serves the streaming exchange as Server-Sent Events:
// one data event per fragment, terminated by the [DONE] sentinel.
func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	req, err := DecodeChatRequest(r.Body)
	if err != nil {
		h.metrics.ChatRequests.WithLabelValues(observability.TransportSSE, observability.OutcomeClientError).Inc()
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := h.chatSvc.Stream(r.Context(), req)
	if err != nil {
		status, message, outcome := classifyError(err)
		h.metrics.ChatRequests.WithLabelValues(observability.TransportSSE, outcome).Inc()
		log.Printf("[stream] open failed: %v", err)
		utils.RespondError(w, status, message)
		return
	}
	defer stream.Close()

	h.metrics.ActiveStreams.Inc()
	defer h.metrics.ActiveStreams.Dec()

	utils.SetupSSEHeaders(w)

	for {
		fragment, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			// Headers are gone; fragments already delivered stay delivered.
			// The missing [DONE] sentinel tells the client the stream broke.
			h.metrics.ChatRequests.WithLabelValues(observability.TransportSSE, observability.OutcomeUpstream).Inc()
			log.Printf("[stream] upstream broke mid-transfer: %v", recvErr)
			return
		}
		utils.SendSSEFragment(w, flusher, fragment)
	}

	if _, err := stream.Finalize(); err != nil {
		h.metrics.ChatRequests.WithLabelValues(observability.TransportSSE, observability.OutcomeUpstream).Inc()
		log.Printf("[stream] finalize failed: %v", err)
		return
	}

	utils.SendSSEDone(w, flusher)
	h.metrics.ChatRequests.WithLabelValues(observability.TransportSSE, observability.OutcomeOK).Inc()
	h.metrics.ActiveSessions.Set(float64(h.chatSvc.Store().Len()))
}

// handleCreateSession hands out a fresh session identifier. The session
// itself is created lazily on the first exchange that references it.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"session_id": h.chatSvc.GenerateSessionID(),
	})
}

// handleHistory returns the stored turns for an existing session.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, err := h.chatSvc.History(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, record)
}

// classifyError maps a core-layer error to a transport response. Upstream
// detail is logged, never echoed to the client.
func classifyError(err error) (status int, message string, outcome string) {
	var upstream *ai.UpstreamError
	if errors.As(err, &upstream) || errors.Is(err, ai.ErrEmptyResponse) {
		return http.StatusBadGateway, "completion service unavailable", observability.OutcomeUpstream
	}
	return http.StatusBadRequest, err.Error(), observability.OutcomeClientError
}
