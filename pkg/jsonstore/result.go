package jsonstore

import "errors"

// Result is the payload every operation produces. Success results may carry
// operation-specific Contents; failure results carry Error and, where
// available, Reason.
type Result struct {
	Success  bool   `json:"success" yaml:"success"`
	Contents any    `json:"contents,omitempty" yaml:"contents,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Succeeded returns a success Result with the given contents.
func Succeeded(contents any) Result {
	return Result{Success: true, Contents: contents}
}

// ResultOf converts an error into a failure Result. A nil error yields an
// empty success Result.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if msg == "" {
			msg = e.Error()
		}
		return Result{Success: false, Error: msg, Reason: e.Reason}
	}
	return Result{Success: false, Error: err.Error()}
}

// fail builds the (Result, error) pair returned by failing operations.
func fail(err *Error) (Result, error) {
	return ResultOf(err), err
}
