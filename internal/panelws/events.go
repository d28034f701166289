package panelws

import (
	"context"
	"encoding/base64"
	"log"
	"time"

	"pulse/assistant/internal/audio"
	"pulse/assistant/internal/types"
)

const pushTimeout = 5 * time.Second

// Event is one server→panel push message.
type Event struct {
	Type           string                     `json:"type"`
	ConversationID string                     `json:"conversation_id,omitempty"`
	MessageID      string                     `json:"message_id,omitempty"`
	Entries        []types.ChatEntry          `json:"entries,omitempty"`
	Entry          *types.ChatEntry           `json:"entry,omitempty"`
	Reactions      map[string]types.Reaction  `json:"reactions,omitempty"`
	HTML           string                     `json:"html,omitempty"`
	Status         string                     `json:"status,omitempty"`
	Audio          string                     `json:"audio,omitempty"`
	Level          string                     `json:"level,omitempty"`
	Text           string                     `json:"text,omitempty"`
}

// Command is one panel→server message; the command set mirrors the REST ops.
type Command struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Category  string `json:"category,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Reaction  string `json:"reaction,omitempty"`
}

func push(reg *Registry, conversationID string, ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := reg.SendJSON(ctx, conversationID, ev); err != nil {
		log.Printf("[panelws] push %s conv=%s: %v", ev.Type, conversationID, err)
	}
}

// Notifier forwards user-facing warnings to the panel as transient notices.
type Notifier struct {
	Reg *Registry
}

func (n *Notifier) Warn(conversationID, text string) {
	push(n.Reg, conversationID, Event{Type: "notice", ConversationID: conversationID, Level: "warning", Text: text})
}

func (n *Notifier) Error(conversationID, text string) {
	push(n.Reg, conversationID, Event{Type: "notice", ConversationID: conversationID, Level: "error", Text: text})
}

// RevealSurface is the live output of the typed reveal: every frame carries
// the full markup revealed so far for one message.
type RevealSurface struct {
	Reg            *Registry
	ConversationID string
	MessageID      string
}

func (s *RevealSurface) SetContent(html string) {
	push(s.Reg, s.ConversationID, Event{
		Type:           "reveal_frame",
		ConversationID: s.ConversationID,
		MessageID:      s.MessageID,
		HTML:           html,
	})
}

// ClipPlayer paces narration clips as audio_frame events on the panel socket.
type ClipPlayer struct {
	Reg *Registry
}

func (p *ClipPlayer) Play(ctx context.Context, conversationID, messageID string, clip *audio.Clip) error {
	sink := &frameSink{reg: p.Reg, conversationID: conversationID, messageID: messageID}
	return audio.NewFramePlayer(sink).Play(ctx, clip)
}

type frameSink struct {
	reg            *Registry
	conversationID string
	messageID      string
}

func (s *frameSink) WriteFrame(pcm []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	return s.reg.SendJSON(ctx, s.conversationID, Event{
		Type:           "audio_frame",
		ConversationID: s.conversationID,
		MessageID:      s.messageID,
		Audio:          base64.StdEncoding.EncodeToString(pcm),
	})
}
