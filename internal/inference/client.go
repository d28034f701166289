package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pulse/assistant/internal/types"
)

// ErrEmptyAnswer marks a technically successful call whose payload carried no
// usable answer; callers treat it like a transport failure.
var ErrEmptyAnswer = errors.New("inference returned empty answer")

// Request is the JSON body sent to the remote inference endpoint.
type Request struct {
	UserQuestion   string         `json:"userQuestion"`
	ContextData    types.Snapshot `json:"contextData"`
	TargetLanguage string         `json:"targetLanguage"`
	ChatHistory    []HistoryItem  `json:"chatHistory"`
}

type HistoryItem struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type Response struct {
	HTMLResponse      string   `json:"htmlResponse"`
	Language          string   `json:"language,omitempty"`
	FollowUpQuestions []string `json:"followUpQuestions,omitempty"`
}

// Answer is the unwrapped result of a successful inference call.
type Answer struct {
	HTML      string
	Language  string
	FollowUps []string
}

type Client struct {
	url   string
	httpc *http.Client
}

// NewClient returns a client for the given endpoint. The zero timeout is
// deliberate: a stalled call is only ever terminated via ctx cancellation.
func NewClient(url string) *Client {
	return &Client{url: url, httpc: &http.Client{Timeout: 0}}
}

func (c *Client) Configured() bool { return c.url != "" }

// Ask issues one cancellable inference request. Non-2xx is a hard failure
// with no retry. The returned answer is fence-stripped and guaranteed
// non-empty; an empty payload yields ErrEmptyAnswer.
func (c *Client) Ask(ctx context.Context, req Request) (Answer, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Answer{}, err
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Answer{}, err
	}
	hr.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(hr)
	if err != nil {
		return Answer{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Answer{}, fmt.Errorf("inference status=%d body=%s", resp.StatusCode, string(b))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Answer{}, err
	}

	html := StripFence(out.HTMLResponse)
	if strings.TrimSpace(html) == "" {
		return Answer{}, ErrEmptyAnswer
	}
	return Answer{HTML: html, Language: out.Language, FollowUps: out.FollowUpQuestions}, nil
}

// StripFence removes a surrounding markdown code fence. Models sometimes wrap
// the HTML payload in ```html ... ``` even when asked not to.
func StripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	t = strings.TrimSpace(t)
	// Drop the language tag right after the opening fence, if present.
	if rest, ok := strings.CutPrefix(t, "html"); ok {
		if rest == "" || rest[0] == '<' || rest[0] == '\n' || rest[0] == '\r' || rest[0] == ' ' || rest[0] == '\t' {
			t = strings.TrimSpace(rest)
		}
	}
	return t
}
