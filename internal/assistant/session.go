// internal/assistant/session.go
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"analytics-assistant/internal/common/logger"
	"analytics-assistant/internal/models"

	"github.com/google/uuid"
)

var (
	ErrUtteranceInFlight = errors.New("UTTERANCE_IN_FLIGHT")
	ErrSpeechUnsupported = errors.New("SPEECH_UNSUPPORTED")
)

const stopSpeakingAck = "I've stopped speaking."

// Querier is the interpreter contract the session drives.
type Querier interface {
	Query(ctx context.Context, utterance string) *models.Payload
}

// Session is the voice/text front controller for one user session.
// It owns the Idle -> Listening -> Processing -> Idle transitions, allows a
// single utterance in flight and treats a capture request while listening as
// a stop. Speech devices are injected capabilities; their support is checked
// once here and never again.
type Session struct {
	id           string
	interpreter  Querier
	recognizer   Recognizer
	synthesizer  Synthesizer
	logger       logger.Logger
	queryTimeout time.Duration

	mu             sync.Mutex
	status         Status
	processing     bool
	speechEnabled  bool
	voiceSupported bool
}

func NewSession(q Querier, rec Recognizer, synth Synthesizer, queryTimeout time.Duration, log logger.Logger) *Session {
	id := uuid.NewString()
	supported := rec != nil && synth != nil && rec.Supported() && synth.Supported()
	return &Session{
		id:             id,
		interpreter:    q,
		recognizer:     rec,
		synthesizer:    synth,
		queryTimeout:   queryTimeout,
		status:         StatusInactive,
		speechEnabled:  true,
		voiceSupported: supported,
		logger: log.With(map[string]interface{}{
			"component": "assistant",
			"sessionId": id,
		}),
	}
}

func (s *Session) ID() string { return s.id }

// VoiceSupported reports the capability flag fixed at construction. When
// false the speech path is disabled and only typed queries are accepted.
func (s *Session) VoiceSupported() bool { return s.voiceSupported }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ToggleCapture starts listening from Idle, and stops it when already
// listening (toggle behavior, not queueing).
func (s *Session) ToggleCapture() error {
	if !s.voiceSupported {
		return ErrSpeechUnsupported
	}

	s.mu.Lock()
	if s.status == StatusListening {
		s.mu.Unlock()
		s.recognizer.Stop()
		return nil
	}
	if s.processing {
		s.mu.Unlock()
		return ErrUtteranceInFlight
	}
	// Claim the listening state before releasing the lock so a concurrent
	// toggle sees it and stops instead of starting a second capture.
	s.status = StatusListening
	s.mu.Unlock()

	if err := s.recognizer.Start(s.handleTranscript, s.setStatus); err != nil {
		s.setStatus(StatusInactive)
		return err
	}
	return nil
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Session) handleTranscript(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	if _, _, err := s.Submit(ctx, text); err != nil {
		s.logger.Warn("voice command dropped", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Submit runs one utterance through the pipeline and returns the payload
// plus the spoken confirmation. A "stop speaking" command short-circuits:
// it cancels synthesis, returns a nil payload with the fixed acknowledgement
// and never reaches classification. Only one utterance may be in flight.
func (s *Session) Submit(ctx context.Context, utterance string) (*models.Payload, string, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return nil, "", ErrUtteranceInFlight
	}
	s.processing = true
	s.status = StatusProcessing
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.status = StatusInactive
		s.mu.Unlock()
	}()

	if strings.Contains(strings.ToLower(utterance), "stop speaking") {
		if s.synthesizer != nil {
			s.synthesizer.Stop()
		}
		s.respond(stopSpeakingAck)
		return nil, stopSpeakingAck, nil
	}

	payload := s.interpreter.Query(ctx, utterance)
	spoken := SpokenResponse(payload)
	s.respond(spoken)

	s.logger.Info("utterance processed", map[string]interface{}{
		"payloadType": string(payload.Type),
	})

	return payload, spoken, nil
}

func (s *Session) respond(message string) {
	s.mu.Lock()
	enabled := s.speechEnabled
	s.mu.Unlock()

	if enabled && s.voiceSupported {
		s.synthesizer.Speak(message)
	}
}

// ToggleSpeech flips spoken output on or off, cancelling any in-progress
// synthesis first. Returns the new state.
func (s *Session) ToggleSpeech() bool {
	if s.synthesizer != nil && s.synthesizer.Speaking() {
		s.synthesizer.Stop()
	}

	s.mu.Lock()
	s.speechEnabled = !s.speechEnabled
	enabled := s.speechEnabled
	s.mu.Unlock()
	return enabled
}

// Close stops both devices; used on session teardown.
func (s *Session) Close() {
	if s.recognizer != nil {
		s.recognizer.Stop()
	}
	if s.synthesizer != nil {
		s.synthesizer.Stop()
	}
}
