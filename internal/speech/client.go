package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrNoAudio = errors.New("speech synthesis returned no audio")

// Request is the JSON body sent to the speech endpoint, once per sentence.
type Request struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type Response struct {
	AudioContent string `json:"audioContent"`
}

type Client struct {
	url   string
	httpc *http.Client
}

func NewClient(url string) *Client {
	return &Client{url: url, httpc: &http.Client{Timeout: 0}}
}

func (c *Client) Configured() bool { return c.url != "" }

// Synthesize requests audio for one sentence and returns the decoded bytes.
// Non-2xx is a hard failure; the caller aborts the rest of its sentence loop.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	body, err := json.Marshal(Request{Text: text, Language: language})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("speech status=%d body=%s", resp.StatusCode, string(b))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.AudioContent == "" {
		return nil, ErrNoAudio
	}
	raw, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoAudio
	}
	return raw, nil
}
