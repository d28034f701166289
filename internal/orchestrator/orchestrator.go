package orchestrator

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pulse/assistant/internal/bizdata"
	"pulse/assistant/internal/fallback"
	"pulse/assistant/internal/history"
	"pulse/assistant/internal/inference"
	"pulse/assistant/internal/types"
)

var ErrEmptyQuestion = errors.New("question is empty")

const maxFollowUps = 3

// connectionErrorHTML is the one fixed error bubble, used only when even the
// fallback path yields nothing.
const connectionErrorHTML = "<p>Sorry, I couldn't reach the assistant service. Please try again.</p>"

// Orchestrator runs question/answer turns against the shared history. Each
// submitted question appends a user entry plus a pending placeholder, runs at
// most one cancellable inference call, and replaces the placeholder in place
// when the turn settles.
type Orchestrator struct {
	histories *history.Store
	bizdata   *bizdata.Store
	client    *inference.Client
	language  string

	reg *Registry

	mu      sync.Mutex
	current map[string]string // conversation id -> in-flight pending entry id

	// OnSettled fires for every turn that actually lands in history, so the
	// panel layer can start the reveal animation.
	OnSettled func(conversationID, entryID string)
}

func New(h *history.Store, b *bizdata.Store, c *inference.Client, language string) *Orchestrator {
	return &Orchestrator{
		histories: h,
		bizdata:   b,
		client:    c,
		language:  language,
		reg:       NewRegistry(),
		current:   make(map[string]string),
	}
}

// Submit starts one turn and returns the pending entry id. Empty questions
// are rejected without touching history.
func (o *Orchestrator) Submit(conversationID, text, category string) (string, error) {
	question := strings.TrimSpace(text)
	if question == "" {
		metricQuestionsRejected.Inc()
		return "", ErrEmptyQuestion
	}

	turnID := uuid.New().String()
	userID := "user-" + turnID
	pendingID := "assistant-" + turnID
	now := time.Now().UTC()

	// Snapshot the prior history before appending: the remote call carries
	// the conversation so far, with this turn's pair excluded.
	prior := o.histories.Entries(conversationID)

	user := types.ChatEntry{ID: userID, Sender: types.SenderUser, Content: question, CreatedAt: now}
	pending := types.ChatEntry{ID: pendingID, Sender: types.SenderPending, CreatedAt: now}
	if err := o.histories.AppendTurn(conversationID, user, pending); err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.reg.Attach(pendingID, cancel)
	o.mu.Lock()
	o.current[conversationID] = pendingID
	o.mu.Unlock()

	go o.runTurn(ctx, conversationID, pendingID, question, category, prior)
	return pendingID, nil
}

// Supersede cancels the conversation's in-flight turn, if any. The transport
// layer calls this before submitting a replacement question; the orchestrator
// itself never cancels one turn on behalf of another.
func (o *Orchestrator) Supersede(conversationID string) {
	o.mu.Lock()
	id := o.current[conversationID]
	o.mu.Unlock()
	if id != "" {
		o.reg.Cancel(id)
	}
}

// CancelAll aborts every in-flight turn; teardown path.
func (o *Orchestrator) CancelAll() {
	o.reg.CancelAll()
}

func (o *Orchestrator) runTurn(ctx context.Context, conversationID, pendingID, question, category string, prior []types.ChatEntry) {
	snap := o.bizdata.Snapshot()

	var ans inference.Answer
	err := errors.New("inference not configured")
	if o.client.Configured() {
		started := time.Now()
		ans, err = o.client.Ask(ctx, inference.Request{
			UserQuestion:   question,
			ContextData:    snap,
			TargetLanguage: o.language,
			ChatHistory:    historyItems(prior),
		})
		if err == nil {
			metricInferenceLatencyMS.Observe(float64(time.Since(started).Milliseconds()))
		}
	}

	// Settlement: drop the cancellation handle first, then decide. A turn
	// cancelled while the call was in flight is discarded entirely; no
	// fallback, no history mutation.
	if o.reg.Detach(pendingID) || ctx.Err() != nil {
		metricTurnsTotal.WithLabelValues("cancelled").Inc()
		o.clearCurrent(conversationID, pendingID)
		return
	}

	outcome := "remote"
	if err != nil {
		if !errors.Is(err, inference.ErrEmptyAnswer) && o.client.Configured() {
			log.Printf("[orch] inference failed conv=%s: %v", conversationID, err)
		}
		resp := fallback.Generate(question, snap, category)
		ans = inference.Answer{HTML: resp.ContentHTML, FollowUps: resp.FollowUps}
		outcome = "fallback"
	}

	lang := ans.Language
	if lang == "" {
		lang = o.language
	}
	content := ans.HTML
	if strings.TrimSpace(content) == "" {
		content = connectionErrorHTML
	}
	followUps := ans.FollowUps
	if len(followUps) > maxFollowUps {
		followUps = followUps[:maxFollowUps]
	}

	replaced := o.histories.UpdateEntry(conversationID, pendingID, func(e *types.ChatEntry) {
		e.Sender = types.SenderAssistant
		e.Content = content
		e.Language = lang
		e.Animate = true
		e.FollowUps = followUps
	})
	metricTurnsTotal.WithLabelValues(outcome).Inc()
	o.clearCurrent(conversationID, pendingID)

	if replaced && o.OnSettled != nil {
		o.OnSettled(conversationID, pendingID)
	}
}

func (o *Orchestrator) clearCurrent(conversationID, pendingID string) {
	o.mu.Lock()
	if o.current[conversationID] == pendingID {
		delete(o.current, conversationID)
	}
	o.mu.Unlock()
}

// historyItems flattens prior entries into the wire shape, skipping pending
// placeholders from turns that never settled.
func historyItems(entries []types.ChatEntry) []inference.HistoryItem {
	out := make([]inference.HistoryItem, 0, len(entries))
	for _, e := range entries {
		if e.Sender == types.SenderPending || e.Content == "" {
			continue
		}
		out = append(out, inference.HistoryItem{Sender: string(e.Sender), Content: e.Content})
	}
	return out
}
