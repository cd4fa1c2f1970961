package pipeline

// Event channel names delivered to the UI shell.
const (
	EventInitialStart     = "initial-start"
	EventNoScreenshots    = "no-screenshots"
	EventProblemExtracted = "problem-extracted"
	EventSolutionSuccess  = "solution-success"
	EventInitialError     = "initial-solution-error"
	EventDebugStart       = "debug-start"
	EventDebugSuccess     = "debug-success"
	EventDebugError       = "debug-error"
	EventAPIKeyInvalid    = "api-key-invalid"
	EventProcessingStatus = "processing-status"
)

// Event is one notification sent to the UI shell.
type Event struct {
	Name     string `json:"name"`
	RunID    string `json:"run_id,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Message  string `json:"message,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// Sink receives pipeline events. Implementations must not block; slow
// consumers are the sink's problem, not the pipeline's.
type Sink interface {
	Emit(e Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}
