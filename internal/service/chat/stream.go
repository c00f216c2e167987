package chat

import (
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/seunghwan-dev/chingu/backend/internal/model/chat"
	"github.com/seunghwan-dev/chingu/backend/internal/service/ai"
)

// Stream is one in-flight streaming exchange. Fragments arrive in upstream
// order; the sequence ends with io.EOF, after which Finalize commits the
// concatenated reply to the session store. Fragments already delivered are
// never retracted when the upstream breaks mid-transfer.
type Stream struct {
	svc    *Service
	ex     *exchange
	reader *schema.StreamReader[*schema.Message]
	parts  []string
	failed bool
}

// Recv returns the next non-empty text fragment. io.EOF marks the end of
// the sequence; any other error is an upstream failure.
func (st *Stream) Recv() (string, error) {
	for {
		chunk, err := st.reader.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			st.failed = true
			return "", &ai.UpstreamError{Err: err}
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		st.parts = append(st.parts, chunk.Content)
		return chunk.Content, nil
	}
}

// Finalize commits the exchange after the sequence ended cleanly and
// returns the finalized assistant reply. An empty concatenation is a
// failure, not an empty success.
func (st *Stream) Finalize() (chat.Completion, error) {
	if st.failed {
		return chat.Completion{}, &ai.UpstreamError{Err: errors.New("stream failed before completion")}
	}

	content := strings.Join(st.parts, "")
	if content == "" {
		return chat.Completion{}, ai.ErrEmptyResponse
	}

	st.svc.commit(st.ex, content)
	return chat.NewCompletion(content), nil
}

// Close releases the underlying upstream connection. Safe to call after a
// client disconnect to stop pulling chunks.
func (st *Stream) Close() {
	st.reader.Close()
}

func newID() string {
	return uuid.NewString()
}
