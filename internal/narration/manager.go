package narration

import (
	"context"
	"log"
	"sync"
	"time"

	"pulse/assistant/internal/audio"
	"pulse/assistant/internal/notify"
	"pulse/assistant/internal/types"
)

// Status is the per-message narration state, derived from session presence:
// no session means idle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusPlaying Status = "playing"
)

// Synthesizer turns one sentence into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	Configured() bool
}

// Player plays one clip to completion for the given conversation. Play must
// not return before the clip has ended, errored, or been interrupted.
type Player interface {
	Play(ctx context.Context, conversationID, messageID string, clip *audio.Clip) error
}

// Manager owns every narration session, keyed by message id. At most one
// session exists per message; the session exclusively owns its cancel handle
// and clips, and nothing outside this package touches either.
type Manager struct {
	synth    Synthesizer
	player   Player
	notifier notify.Notifier
	language string

	// OnStatus, when set, is told about every status transition so the panel
	// can repaint the narration control.
	OnStatus func(conversationID, messageID string, status Status)

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	conversationID string
	cancel         context.CancelFunc
	clips          []*audio.Clip
	status         Status
}

func NewManager(synth Synthesizer, player Player, notifier notify.Notifier, language string) *Manager {
	return &Manager{
		synth:    synth,
		player:   player,
		notifier: notifier,
		language: language,
		sessions: make(map[string]*session),
	}
}

// Toggle starts narration for the message, or stops it if a session already
// exists. Stopping releases every clip before returning.
func (m *Manager) Toggle(conversationID string, entry types.ChatEntry) Status {
	m.mu.Lock()
	if s, ok := m.sessions[entry.ID]; ok {
		m.mu.Unlock()
		m.stop(entry.ID, s)
		return StatusIdle
	}

	if !m.synth.Configured() {
		m.mu.Unlock()
		m.notifier.Warn(conversationID, "Narration is not configured.")
		return StatusIdle
	}

	text := ExtractText(entry.Content)
	if text == "" {
		m.mu.Unlock()
		m.notifier.Warn(conversationID, "There is nothing to read aloud in this message.")
		return StatusIdle
	}

	lang := entry.Language
	if lang == "" {
		lang = m.language
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{conversationID: conversationID, cancel: cancel, status: StatusLoading}
	m.sessions[entry.ID] = s
	m.mu.Unlock()

	metricSessionsStarted.Inc()
	metricActiveSessions.Inc()
	m.emit(conversationID, entry.ID, StatusLoading)

	go m.run(ctx, entry.ID, s, SplitSentences(text), lang)
	return StatusLoading
}

// Stop tears down the session for the message, if any. Safe to call from any
// phase, repeatedly, and from teardown paths.
func (m *Manager) Stop(messageID string) {
	m.mu.Lock()
	s := m.sessions[messageID]
	m.mu.Unlock()
	if s != nil {
		m.stop(messageID, s)
	}
}

// StopAll is the teardown path: every live session is stopped and released.
func (m *Manager) StopAll() {
	m.mu.Lock()
	live := make(map[string]*session, len(m.sessions))
	for id, s := range m.sessions {
		live[id] = s
	}
	m.mu.Unlock()
	for id, s := range live {
		m.stop(id, s)
	}
}

func (m *Manager) Status(messageID string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[messageID]; ok {
		return s.status
	}
	return StatusIdle
}

// run is the session worker: synthesize every sentence in order, one call in
// flight at a time, then play the clips strictly back to back.
func (m *Manager) run(ctx context.Context, messageID string, s *session, sentences []string, lang string) {
	for _, sentence := range sentences {
		started := time.Now()
		raw, err := m.synth.Synthesize(ctx, sentence, lang)
		if ctx.Err() != nil {
			// Stopped while the request was in flight; cleanup already ran.
			return
		}
		if err != nil {
			// A failed synthesis call stops the whole session: nothing
			// already fetched is played, the user just gets a warning.
			metricSynthesisTotal.WithLabelValues("error").Inc()
			log.Printf("[narration] synthesis failed msg=%s: %v", messageID, err)
			m.mu.Lock()
			current := m.sessions[messageID] == s
			m.mu.Unlock()
			if current {
				m.stop(messageID, s)
				m.notifier.Warn(s.conversationID, "Narration is unavailable right now.")
			}
			return
		}
		metricSynthesisTotal.WithLabelValues("ok").Inc()
		metricSynthesisLatencyMS.Observe(float64(time.Since(started).Milliseconds()))

		clip, err := audio.NewClip(raw)
		if err != nil {
			log.Printf("[narration] undecodable clip msg=%s: %v", messageID, err)
			continue
		}

		m.mu.Lock()
		if m.sessions[messageID] != s {
			// Session was stopped and possibly restarted while we were
			// synthesizing; this clip belongs to nobody.
			m.mu.Unlock()
			clip.Release()
			return
		}
		s.clips = append(s.clips, clip)
		m.mu.Unlock()
	}

	m.mu.Lock()
	if m.sessions[messageID] != s {
		m.mu.Unlock()
		return
	}
	if len(s.clips) == 0 {
		m.mu.Unlock()
		m.stop(messageID, s)
		m.notifier.Warn(s.conversationID, "Narration is unavailable right now.")
		return
	}
	s.status = StatusPlaying
	clips := s.clips
	m.mu.Unlock()
	m.emit(s.conversationID, messageID, StatusPlaying)

	// Clip n+1 starts only after clip n ends; playback errors advance too.
	for _, clip := range clips {
		if err := m.player.Play(ctx, s.conversationID, messageID, clip); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[narration] playback error msg=%s: %v", messageID, err)
		}
	}

	m.stopIfCurrent(messageID, s)
}

// stop removes the session entry, cancels outstanding work and releases every
// clip. No backing buffer survives it.
func (m *Manager) stop(messageID string, s *session) {
	m.mu.Lock()
	if m.sessions[messageID] != s {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, messageID)
	s.status = StatusIdle
	clips := s.clips
	s.clips = nil
	m.mu.Unlock()

	s.cancel()
	for _, c := range clips {
		c.Release()
	}
	metricActiveSessions.Dec()
	m.emit(s.conversationID, messageID, StatusIdle)
}

// stopIfCurrent ends the session after natural playback completion, unless a
// newer session took over the key in the meantime.
func (m *Manager) stopIfCurrent(messageID string, s *session) {
	m.mu.Lock()
	current := m.sessions[messageID] == s
	m.mu.Unlock()
	if current {
		m.stop(messageID, s)
	}
}

func (m *Manager) emit(conversationID, messageID string, st Status) {
	if m.OnStatus != nil {
		m.OnStatus(conversationID, messageID, st)
	}
}
