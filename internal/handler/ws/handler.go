package ws

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatHandler "github.com/seunghwan-dev/chingu/backend/internal/handler/chat"
	"github.com/seunghwan-dev/chingu/backend/internal/observability"
	chatService "github.com/seunghwan-dev/chingu/backend/internal/service/chat"
)

// Frame types pushed to the client.
const (
	frameDelta = "delta"
	frameDone  = "done"
	frameError = "error"
)

// Handler streams chat exchanges over a WebSocket connection. Each inbound
// frame is one chat request; the reply arrives as delta frames followed by
// a done frame carrying the full concatenation.
type Handler struct {
	chatSvc  *chatService.Service
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

// New creates the WebSocket chat handler.
func New(chatSvc *chatService.Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleChatSocket)
}

type outboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var payload chatHandler.ChatRequest
		if err := conn.ReadJSON(&payload); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}

		if err := h.serveExchange(r, conn, payload); err != nil {
			return
		}
	}
}

// serveExchange runs one streamed exchange over the open connection. A
// non-nil return means the connection itself is unusable.
func (h *Handler) serveExchange(r *http.Request, conn *websocket.Conn, payload chatHandler.ChatRequest) error {
	req, err := payload.ToServiceRequest()
	if err != nil {
		h.metrics.ChatRequests.WithLabelValues(observability.TransportWS, observability.OutcomeClientError).Inc()
		return conn.WriteJSON(outboundFrame{Type: frameError, Message: err.Error()})
	}

	stream, err := h.chatSvc.Stream(r.Context(), req)
	if err != nil {
		h.metrics.ChatRequests.WithLabelValues(observability.TransportWS, observability.OutcomeUpstream).Inc()
		log.Printf("[ws] stream open failed: %v", err)
		return conn.WriteJSON(outboundFrame{Type: frameError, Message: "completion service unavailable"})
	}
	defer stream.Close()

	h.metrics.ActiveStreams.Inc()
	defer h.metrics.ActiveStreams.Dec()

	for {
		fragment, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			h.metrics.ChatRequests.WithLabelValues(observability.TransportWS, observability.OutcomeUpstream).Inc()
			log.Printf("[ws] upstream broke mid-transfer: %v", recvErr)
			return conn.WriteJSON(outboundFrame{Type: frameError, Message: "completion service unavailable"})
		}
		if err := conn.WriteJSON(outboundFrame{Type: frameDelta, Content: fragment}); err != nil {
			return err
		}
	}

	completion, err := stream.Finalize()
	if err != nil {
		h.metrics.ChatRequests.WithLabelValues(observability.TransportWS, observability.OutcomeUpstream).Inc()
		log.Printf("[ws] finalize failed: %v", err)
		return conn.WriteJSON(outboundFrame{Type: frameError, Message: "completion service unavailable"})
	}

	h.metrics.ChatRequests.WithLabelValues(observability.TransportWS, observability.OutcomeOK).Inc()
	h.metrics.ActiveSessions.Set(float64(h.chatSvc.Store().Len()))
	return conn.WriteJSON(outboundFrame{Type: frameDone, Content: completion.Content})
}
