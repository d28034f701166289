package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"pulse/assistant/internal/bizdata"
	"pulse/assistant/internal/config"
	"pulse/assistant/internal/history"
	"pulse/assistant/internal/narration"
	"pulse/assistant/internal/orchestrator"
	"pulse/assistant/internal/types"
)

type Handlers struct {
	cfg       config.Config
	histories *history.Store
	biz       *bizdata.Store
	orch      *orchestrator.Orchestrator
	narrator  *narration.Manager
}

func NewHandlers(cfg config.Config, h *history.Store, b *bizdata.Store, o *orchestrator.Orchestrator, n *narration.Manager) *Handlers {
	return &Handlers{cfg: cfg, histories: h, biz: b, orch: o, narrator: n}
}

func (h *Handlers) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	welcome := types.ChatEntry{
		ID:        "welcome-" + id,
		Sender:    types.SenderWelcome,
		Content:   h.cfg.Assistant.WelcomeMessage,
		Language:  h.cfg.Assistant.Language,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.histories.Create(id, welcome); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversation_id": id,
		"entries":         h.histories.Entries(id),
	})
}

func (h *Handlers) HandleGetHistory(w http.ResponseWriter, r *http.Request, id string) {
	if !h.histories.Exists(id) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversation_id": id,
		"entries":         h.histories.Entries(id),
		"reactions":       h.histories.Reactions(id),
	})
}

func (h *Handlers) HandleSubmitQuestion(w http.ResponseWriter, r *http.Request, id string) {
	if !h.histories.Exists(id) {
		http.NotFound(w, r)
		return
	}
	var body struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	// An empty submission is a no-op and must not cancel the in-flight turn.
	if strings.TrimSpace(body.Text) == "" {
		http.Error(w, orchestrator.ErrEmptyQuestion.Error(), http.StatusBadRequest)
		return
	}

	// A real question always takes over from whatever is still in flight.
	h.orch.Supersede(id)
	pendingID, err := h.orch.Submit(id, body.Text, body.Category)
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptyQuestion) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversation_id": id,
		"pending_id":      pendingID,
	})
}

func (h *Handlers) HandleToggleNarration(w http.ResponseWriter, r *http.Request, id, messageID string) {
	entry, ok := h.histories.Entry(id, messageID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if entry.Sender != types.SenderAssistant && entry.Sender != types.SenderWelcome {
		http.Error(w, "message cannot be narrated", http.StatusConflict)
		return
	}

	status := h.narrator.Toggle(id, entry)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message_id": messageID,
		"status":     string(status),
	})
}

func (h *Handlers) HandleSetReaction(w http.ResponseWriter, r *http.Request, id, messageID string) {
	if _, ok := h.histories.Entry(id, messageID); !ok {
		http.NotFound(w, r)
		return
	}
	var body struct {
		Reaction string `json:"reaction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	switch types.Reaction(body.Reaction) {
	case types.ReactionLike, types.ReactionDislike, "":
	default:
		http.Error(w, "unknown reaction", http.StatusBadRequest)
		return
	}

	h.histories.SetReaction(id, messageID, types.Reaction(body.Reaction))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func (h *Handlers) HandleReplaceContext(w http.ResponseWriter, r *http.Request) {
	var snap types.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	h.biz.Replace(snap)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
