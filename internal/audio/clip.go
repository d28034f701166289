package audio

import (
	"sync"
	"time"
)

// Clip is one decoded narration sentence. It exclusively owns its PCM buffer;
// Release frees the buffer and interrupts any in-progress playback, and is
// safe to call any number of times.
type Clip struct {
	mu         sync.Mutex
	pcm        []byte
	sampleRate int
	released   bool
	stopc      chan struct{}
}

// NewClip decodes a synthesized payload into a playable clip. Only WAV PCM16
// is playable; anything else is a decode error and the caller advances.
func NewClip(raw []byte) (*Clip, error) {
	pcm, rate, err := decodeWAV(raw)
	if err != nil {
		return nil, err
	}
	return &Clip{pcm: pcm, sampleRate: rate, stopc: make(chan struct{})}, nil
}

func (c *Clip) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	c.pcm = nil
	close(c.stopc)
}

func (c *Clip) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Duration reports the real-time length of the clip at its sample rate.
func (c *Clip) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sampleRate == 0 {
		return 0
	}
	samples := len(c.pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(c.sampleRate)
}

// frame returns the frame starting at byte offset off, or nil when the clip
// is exhausted or released.
func (c *Clip) frame(off, size int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released || off >= len(c.pcm) {
		return nil
	}
	end := off + size
	if end > len(c.pcm) {
		end = len(c.pcm)
	}
	return c.pcm[off:end]
}
