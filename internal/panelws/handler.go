package panelws

import (
	"encoding/json"
	"log"
	"net/http"

	"pulse/assistant/internal/history"

	ws "nhooyr.io/websocket"
)

// Server accepts one panel connection per conversation, pushes the history
// snapshot on connect, and feeds inbound commands to the dispatcher wired in
// by the entrypoint.
type Server struct {
	Histories *history.Store
	Reg       *Registry

	// OnCommand handles one inbound panel command. Set before serving.
	OnCommand func(conversationID string, cmd Command)
}

func NewServer(h *history.Store, reg *Registry) *Server {
	return &Server{Histories: h, Reg: reg}
}

func (s *Server) HandlePanelWS(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		http.Error(w, "missing conversation_id", http.StatusBadRequest)
		return
	}
	if !s.Histories.Exists(conversationID) {
		http.Error(w, "unknown conversation", http.StatusNotFound)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[panelws] accept: %v", err)
		return
	}
	if s.Reg.Replace(conversationID, c) {
		log.Printf("[panelws] panel replaced conv=%s", conversationID)
	}

	// New panel gets the full picture before any incremental events.
	push(s.Reg, conversationID, Event{
		Type:           "history",
		ConversationID: conversationID,
		Entries:        s.Histories.Entries(conversationID),
		Reactions:      s.Histories.Reactions(conversationID),
	})

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Printf("[panelws] bad command conv=%s: %v", conversationID, err)
			continue
		}
		if s.OnCommand != nil {
			s.OnCommand(conversationID, cmd)
		}
	}
	_ = c.Close(ws.StatusNormalClosure, "done")
	s.Reg.Remove(conversationID, c)
}
