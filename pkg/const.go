package pkg

const (
	HeaderTraceId       string = "X-Trace-Id"
	HeaderAuthorization string = "Authorization"
	HeaderContentType   string = "Content-Type"
)

const (
	TraceId    string = "trace_id"
	StatusCode string = "status_code"
	Confidence string = "confidence"
)

const ContentTypeJSON = "application/json"

// ValidationStatus is the badge rendered for a settled run.
type ValidationStatus string

const (
	ValidationStatusValid   ValidationStatus = "valid"
	ValidationStatusInvalid ValidationStatus = "invalid"
)

// RunState tracks the interactive invoker lifecycle.
type RunState string

const (
	RunStateIdle    RunState = "idle"
	RunStateRunning RunState = "running"
	RunStateSettled RunState = "settled"
)
