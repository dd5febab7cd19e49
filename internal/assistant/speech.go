// internal/assistant/speech.go
package assistant

// Status mirrors the capture device lifecycle.
type Status string

const (
	StatusInactive   Status = "inactive"
	StatusListening  Status = "listening"
	StatusProcessing Status = "processing"
)

// Recognizer is the speech-capture capability injected into a session.
// Start delivers exactly one final transcript through onResult and reports
// lifecycle changes through onStatus; Stop cancels capture without a result.
type Recognizer interface {
	Supported() bool
	Start(onResult func(text string), onStatus func(status Status)) error
	Stop()
}

// Synthesizer is the speech-output capability injected into a session.
type Synthesizer interface {
	Supported() bool
	Speak(text string)
	Stop()
	Speaking() bool
}
