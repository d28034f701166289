package panelws

import (
	"sync"

	"pulse/assistant/internal/history"
	"pulse/assistant/internal/narration"
	"pulse/assistant/internal/reveal"
	"pulse/assistant/internal/types"
)

// Presenter turns settled turns into panel-facing animation: it pushes the
// updated entry, drives the typed reveal onto the conversation's socket, and
// clears the animate flag when the reveal finishes. One reveal runs per
// conversation; a newer answer disposes the previous reveal, which flushes it
// to its full content first.
type Presenter struct {
	Histories *history.Store
	Reg       *Registry
	Renderer  *reveal.Renderer
	Animate   bool

	mu      sync.Mutex
	reveals map[string]func()
}

func NewPresenter(h *history.Store, reg *Registry, r *reveal.Renderer, animate bool) *Presenter {
	return &Presenter{Histories: h, Reg: reg, Renderer: r, Animate: animate, reveals: make(map[string]func())}
}

// OnSettled is wired as the orchestrator's settlement hook.
func (p *Presenter) OnSettled(conversationID, entryID string) {
	entry, ok := p.Histories.Entry(conversationID, entryID)
	if !ok {
		return
	}
	push(p.Reg, conversationID, Event{
		Type:           "entry_updated",
		ConversationID: conversationID,
		Entry:          &entry,
	})

	p.disposeReveal(conversationID)

	surface := &RevealSurface{Reg: p.Reg, ConversationID: conversationID, MessageID: entryID}
	dispose := p.Renderer.Reveal(entry.Content, surface, reveal.Options{
		Animate: p.Animate,
		OnComplete: func() {
			p.Histories.UpdateEntry(conversationID, entryID, func(e *types.ChatEntry) { e.Animate = false })
			if done, ok := p.Histories.Entry(conversationID, entryID); ok {
				push(p.Reg, conversationID, Event{
					Type:           "entry_updated",
					ConversationID: conversationID,
					Entry:          &done,
				})
			}
			p.clearReveal(conversationID)
		},
	})

	p.mu.Lock()
	p.reveals[conversationID] = dispose
	p.mu.Unlock()
}

// OnNarrationStatus is wired as the narration manager's status hook.
func (p *Presenter) OnNarrationStatus(conversationID, messageID string, st narration.Status) {
	push(p.Reg, conversationID, Event{
		Type:           "narration_status",
		ConversationID: conversationID,
		MessageID:      messageID,
		Status:         string(st),
	})
}

// DisposeAll flushes every running reveal; teardown path.
func (p *Presenter) DisposeAll() {
	p.mu.Lock()
	reveals := p.reveals
	p.reveals = make(map[string]func())
	p.mu.Unlock()
	for _, dispose := range reveals {
		dispose()
	}
}

func (p *Presenter) disposeReveal(conversationID string) {
	p.mu.Lock()
	dispose := p.reveals[conversationID]
	delete(p.reveals, conversationID)
	p.mu.Unlock()
	if dispose != nil {
		dispose()
	}
}

func (p *Presenter) clearReveal(conversationID string) {
	p.mu.Lock()
	delete(p.reveals, conversationID)
	p.mu.Unlock()
}
