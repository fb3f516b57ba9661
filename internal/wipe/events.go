package wipe

// Event is a message published by the engine while a batch runs.
// Concrete types: Progress, Status, Completed.
type Event interface {
	event()
}

// Sink receives events. The engine always calls it from the worker that runs the batch.
type Sink func(Event)

// Discard is a Sink that drops every event.
func Discard(Event) {}

// Progress reports the start of an overwrite pass.
// Percent is the batch-wide completion and is filled in by Batch.
type Progress struct {
	FileIndex int // 1-based
	Pass      int // 1-based, 0 for the final batch event
	PassTotal int
	Percent   int
	Message   string
}

// Severity classifies a status line.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityHint    Severity = "hint"
)

// Status is a free-form status line.
type Status struct {
	FileIndex int
	Severity  Severity
	Text      string
}

// Completed is the last event of a batch.
type Completed struct {
	Summary BatchSummary
}

func (Progress) event()  {}
func (Status) event()    {}
func (Completed) event() {}

func emitStatus(sink Sink, fileIndex int, sev Severity, text string) {
	sink(Status{FileIndex: fileIndex, Severity: sev, Text: text})
}
