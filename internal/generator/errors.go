package generator

import "errors"

// Terminal outcomes of a generation run. Every failure aborts the run; none is retried
// beyond the single fallback-model attempt made by the completion client.
var (
	ErrMissingConfiguration = errors.New("api key is not configured")
	ErrNoActiveDocument     = errors.New("no file to generate tests for")
	ErrTargetExists         = errors.New("test file already exists")
	ErrRemoteCall           = errors.New("completion request failed")
	ErrNoTestsPossible      = errors.New("model could not generate tests for this file")
	ErrWriteFailed          = errors.New("writing the test file failed")
	ErrEmptyAPIKey          = errors.New("api key not entered")
)

// Outcome labels used for metrics and logs.
const (
	OutcomeWritten       = "written"
	OutcomeMissingConfig = "missing_config"
	OutcomeNoDocument    = "no_document"
	OutcomeTargetExists  = "target_exists"
	OutcomeRemoteFailure = "remote_failure"
	OutcomeNotPossible   = "not_possible"
	OutcomeWriteFailed   = "write_failed"
	OutcomeError         = "error"
)

// OutcomeOf maps a GenerateTests error to its outcome label.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeWritten
	case errors.Is(err, ErrMissingConfiguration):
		return OutcomeMissingConfig
	case errors.Is(err, ErrNoActiveDocument):
		return OutcomeNoDocument
	case errors.Is(err, ErrTargetExists):
		return OutcomeTargetExists
	case errors.Is(err, ErrRemoteCall):
		return OutcomeRemoteFailure
	case errors.Is(err, ErrNoTestsPossible):
		return OutcomeNotPossible
	case errors.Is(err, ErrWriteFailed):
		return OutcomeWriteFailed
	default:
		return OutcomeError
	}
}
