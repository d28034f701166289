package audio

import (
	"context"
	"time"
)

const frameInterval = 20 * time.Millisecond

// Sink receives paced PCM frames, typically a panel WebSocket.
type Sink interface {
	WriteFrame(pcm []byte) error
}

// FramePlayer streams 20ms PCM frames to a sink at real-time pace. Play does
// not return before the clip has ended, errored, or been interrupted;
// narration relies on this for its strict clip-after-clip sequencing.
type FramePlayer struct {
	sink Sink
}

func NewFramePlayer(sink Sink) *FramePlayer {
	return &FramePlayer{sink: sink}
}

func (p *FramePlayer) Play(ctx context.Context, clip *Clip) error {
	clip.mu.Lock()
	rate := clip.sampleRate
	clip.mu.Unlock()
	if rate == 0 {
		return nil
	}
	frameBytes := rate / 50 * 2 // 20ms of mono PCM16

	t := time.NewTicker(frameInterval)
	defer t.Stop()
	off := 0
	for {
		frame := clip.frame(off, frameBytes)
		if frame == nil {
			// Exhausted or released; both count as the clip ending.
			return nil
		}
		if err := p.sink.WriteFrame(frame); err != nil {
			return err
		}
		off += len(frame)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clip.stopc:
			return nil
		case <-t.C:
		}
	}
}
