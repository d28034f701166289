package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pulse/assistant/internal/audio"
	"pulse/assistant/internal/bizdata"
	"pulse/assistant/internal/config"
	"pulse/assistant/internal/history"
	"pulse/assistant/internal/inference"
	"pulse/assistant/internal/narration"
	"pulse/assistant/internal/notify"
	"pulse/assistant/internal/orchestrator"
	"pulse/assistant/internal/speech"
	"pulse/assistant/internal/types"
)

type nullPlayer struct{}

func (nullPlayer) Play(ctx context.Context, conversationID, messageID string, clip *audio.Clip) error {
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *history.Store, *bizdata.Store) {
	t.Helper()
	return newTestRouterWithInference(t, "")
}

func newTestRouterWithInference(t *testing.T, inferenceURL string) (http.Handler, *history.Store, *bizdata.Store) {
	t.Helper()
	cfg := config.Config{}
	cfg.Assistant.Language = "en"
	cfg.Assistant.WelcomeMessage = "<p>Welcome!</p>"

	hist := history.New()
	biz := bizdata.New("$")
	orch := orchestrator.New(hist, biz, inference.NewClient(inferenceURL), "en")
	narrator := narration.NewManager(speech.NewClient(""), nullPlayer{}, notify.LogNotifier{}, "en")

	return NewRouter(NewHandlers(cfg, hist, biz, orch, narrator)), hist, biz
}

func createConversation(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("create conversation: status %d", rec.Code)
	}
	var body struct {
		ConversationID string            `json:"conversation_id"`
		Entries        []types.ChatEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if body.ConversationID == "" {
		t.Fatal("empty conversation id")
	}
	if len(body.Entries) != 1 || body.Entries[0].Sender != types.SenderWelcome {
		t.Fatalf("expected a single welcome entry, got %v", body.Entries)
	}
	return body.ConversationID
}

func TestCreateAndFetchHistory(t *testing.T) {
	router, _, _ := newTestRouter(t)
	id := createConversation(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+id+"/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/nope/history", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown conversation: expected 404, got %d", rec.Code)
	}
}

func TestSubmitQuestion(t *testing.T) {
	router, hist, _ := newTestRouter(t)
	id := createConversation(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+id+"/questions",
		strings.NewReader(`{"text":"   "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank question: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+id+"/questions",
		strings.NewReader(`{"text":"How are sales?","category":"sales"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		PendingID string `json:"pending_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if body.PendingID == "" {
		t.Fatal("no pending id returned")
	}

	// The user/pending pair is appended before the handler returns.
	entries := hist.Entries(id)
	if len(entries) < 3 {
		t.Fatalf("expected welcome + user + pending, got %d entries", len(entries))
	}
	if entries[1].Sender != types.SenderUser || entries[1].Content != "How are sales?" {
		t.Fatalf("unexpected user entry %+v", entries[1])
	}
	if entries[2].ID != body.PendingID {
		t.Fatalf("pending entry id %s != %s", entries[2].ID, body.PendingID)
	}
}

func TestBlankSubmissionLeavesInFlightTurnAlone(t *testing.T) {
	release := make(chan struct{})
	infer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{"htmlResponse": "<p>slow answer</p>"})
	}))
	defer infer.Close()

	router, hist, _ := newTestRouterWithInference(t, infer.URL)
	id := createConversation(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+id+"/questions",
		strings.NewReader(`{"text":"How are sales?"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d", rec.Code)
	}
	var body struct {
		PendingID string `json:"pending_id"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)

	// A blank submission is rejected without cancelling the turn in flight.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+id+"/questions",
		strings.NewReader(`{"text":"   "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank question: expected 400, got %d", rec.Code)
	}

	close(release)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if e, ok := hist.Entry(id, body.PendingID); ok && e.Sender == types.SenderAssistant {
			if e.Content != "<p>slow answer</p>" {
				t.Fatalf("turn settled with wrong content %q", e.Content)
			}
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("in-flight turn never settled after blank submission")
}

func TestReactions(t *testing.T) {
	router, hist, _ := newTestRouter(t)
	id := createConversation(t, router)
	messageID := hist.Entries(id)[0].ID

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/conversations/"+id+"/messages/"+messageID+"/reaction",
		strings.NewReader(`{"reaction":"like"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("set reaction: status %d", rec.Code)
	}
	if hist.Reactions(id)[messageID] != types.ReactionLike {
		t.Fatal("reaction not recorded")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/conversations/"+id+"/messages/"+messageID+"/reaction",
		strings.NewReader(`{"reaction":""}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear reaction: status %d", rec.Code)
	}
	if _, ok := hist.Reactions(id)[messageID]; ok {
		t.Fatal("reaction not cleared")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/conversations/"+id+"/messages/"+messageID+"/reaction",
		strings.NewReader(`{"reaction":"meh"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown reaction: expected 400, got %d", rec.Code)
	}
}

func TestNarrationRejectsUserMessages(t *testing.T) {
	router, hist, _ := newTestRouter(t)
	id := createConversation(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+id+"/questions",
		strings.NewReader(`{"text":"Hello"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d", rec.Code)
	}
	userID := hist.Entries(id)[1].ID

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/conversations/"+id+"/messages/"+userID+"/narration", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("narrating a user message: expected 409, got %d", rec.Code)
	}
}

func TestReplaceContext(t *testing.T) {
	router, _, biz := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/context",
		strings.NewReader(`{"sales":[{"id":"s1","total":120}],"currency":"EUR"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("replace context: status %d", rec.Code)
	}
	snap := biz.Snapshot()
	if len(snap.Sales) != 1 || snap.Sales[0].Total != 120 {
		t.Fatalf("snapshot not replaced: %+v", snap)
	}
	if snap.Currency != "EUR" {
		t.Fatalf("currency = %q", snap.Currency)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/context", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /context: expected 405, got %d", rec.Code)
	}
}
