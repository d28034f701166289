package audio

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"
)

// buildWAV assembles a minimal RIFF/WAVE payload around raw PCM16 data.
func buildWAV(t *testing.T, channels uint16, rate uint32, pcm []byte) []byte {
	t.Helper()
	var b []byte
	u32 := func(v uint32) { b = binary.LittleEndian.AppendUint32(b, v) }
	u16 := func(v uint16) { b = binary.LittleEndian.AppendUint16(b, v) }

	b = append(b, "RIFF"...)
	u32(uint32(36 + len(pcm)))
	b = append(b, "WAVE"...)
	b = append(b, "fmt "...)
	u32(16)
	u16(1) // PCM
	u16(channels)
	u32(rate)
	u32(rate * uint32(channels) * 2)
	u16(channels * 2)
	u16(16)
	b = append(b, "data"...)
	u32(uint32(len(pcm)))
	b = append(b, pcm...)
	return b
}

func TestDecodeWAVMono(t *testing.T) {
	pcm := make([]byte, 960) // 10ms at 48k mono
	raw := buildWAV(t, 1, 48000, pcm)

	got, rate, err := decodeWAV(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rate != 48000 || len(got) != len(pcm) {
		t.Fatalf("rate=%d len=%d", rate, len(got))
	}
}

func TestDecodeWAVStereoAveraged(t *testing.T) {
	// Two frames of stereo: L=100/R=300 should average to 200.
	var pcm []byte
	for i := 0; i < 2; i++ {
		pcm = binary.LittleEndian.AppendUint16(pcm, 100)
		pcm = binary.LittleEndian.AppendUint16(pcm, 300)
	}
	got, _, err := decodeWAV(buildWAV(t, 2, 44100, pcm))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 2 mono samples, got %d bytes", len(got))
	}
	if s := int16(binary.LittleEndian.Uint16(got[0:2])); s != 200 {
		t.Fatalf("averaged sample = %d, want 200", s)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, err := decodeWAV([]byte("ID3\x04mp3mp3mp3mp3 not a wav at all, just bytes......")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClipReleaseIdempotent(t *testing.T) {
	c, err := NewClip(buildWAV(t, 1, 48000, make([]byte, 1920)))
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	if c.Released() {
		t.Fatal("fresh clip already released")
	}
	c.Release()
	c.Release() // must not panic
	if !c.Released() {
		t.Fatal("clip not released")
	}
	if c.frame(0, 960) != nil {
		t.Fatal("released clip still serves frames")
	}
}

type countingSink struct {
	mu     sync.Mutex
	frames int
}

func (s *countingSink) WriteFrame(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	return nil
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func TestFramePlayerPlaysToEnd(t *testing.T) {
	// 40ms at 48k mono = two 20ms frames.
	c, err := NewClip(buildWAV(t, 1, 48000, make([]byte, 48*40*2)))
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	sink := &countingSink{}
	if err := NewFramePlayer(sink).Play(context.Background(), c); err != nil {
		t.Fatalf("play: %v", err)
	}
	if sink.count() != 2 {
		t.Fatalf("expected 2 frames, got %d", sink.count())
	}
}

func TestFramePlayerStopsOnRelease(t *testing.T) {
	// A long clip released mid-playback must end Play promptly.
	c, err := NewClip(buildWAV(t, 1, 48000, make([]byte, 48*2000*2)))
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	sink := &countingSink{}
	done := make(chan error, 1)
	go func() { done <- NewFramePlayer(sink).Play(context.Background(), c) }()

	time.Sleep(30 * time.Millisecond)
	c.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("play after release: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("player did not stop after release")
	}
}

func TestFramePlayerHonorsContext(t *testing.T) {
	c, err := NewClip(buildWAV(t, 1, 48000, make([]byte, 48*2000*2)))
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewFramePlayer(&countingSink{}).Play(ctx, c) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("player did not stop on cancel")
	}
}
