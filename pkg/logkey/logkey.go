package logkey

// Shared keys for structured log attributes so grepping logs stays sane.
const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"
)
