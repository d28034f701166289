package panelws

import (
	"context"
	"encoding/json"
	"sync"

	ws "nhooyr.io/websocket"
)

// Registry keeps at most one panel connection per conversation.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*ws.Conn
}

func NewRegistry() *Registry { return &Registry{conns: make(map[string]*ws.Conn)} }

// Replace sets the connection for a conversation and closes the previous one
// if present.
func (r *Registry) Replace(conversationID string, c *ws.Conn) (prevClosed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.conns[conversationID]; ok && old != nil {
		_ = old.Close(ws.StatusNormalClosure, "replaced")
		prevClosed = true
	}
	r.conns[conversationID] = c
	return
}

func (r *Registry) Get(conversationID string) *ws.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[conversationID]
}

// Remove drops the registration only if the conversation is still mapped to
// c. A replaced handler's teardown must never evict the connection that
// replaced it; the registry is the only delivery path for pushes.
func (r *Registry) Remove(conversationID string, c *ws.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[conversationID] == c {
		delete(r.conns, conversationID)
	}
}

// SendJSON pushes an event to the conversation's panel; a missing connection
// is not an error, the panel simply isn't watching.
func (r *Registry) SendJSON(ctx context.Context, conversationID string, v any) error {
	r.mu.Lock()
	c := r.conns[conversationID]
	r.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Write(ctx, ws.MessageText, mustJSON(v))
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
