package utils

import (
	"fmt"
	"net/http"
)

// DoneSentinel terminates the event stream. It is an out-of-band marker the
// client must treat as end-of-stream, never as literal content.
const DoneSentinel = "[DONE]"

// SetupSSEHeaders prepares the response for Server-Sent Events.
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// SendSSEFragment writes one raw text fragment as an SSE data event.
func SendSSEFragment(w http.ResponseWriter, flusher http.Flusher, fragment string) {
	fmt.Fprintf(w, "data: %s\n\n", fragment)
	flusher.Flush()
}

// SendSSEDone emits the end-of-stream sentinel event.
func SendSSEDone(w http.ResponseWriter, flusher http.Flusher) {
	SendSSEFragment(w, flusher, DoneSentinel)
}
