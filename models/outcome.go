package models

import "errors"

// Outcome is the result of one submission cycle: either a parsed
// BackendResponse or a failure description, never both and never neither.
// Build it with Success or Failure.
type Outcome struct {
	resp *BackendResponse
	err  error
}

// Success wraps a parsed response. A nil response is a failure.
func Success(resp *BackendResponse) Outcome {
	if resp == nil {
		return Failure(errors.New("empty backend response"))
	}
	return Outcome{resp: resp}
}

// Failure wraps the error that ended a submission.
func Failure(err error) Outcome {
	if err == nil {
		err = errors.New("submission failed")
	}
	return Outcome{err: err}
}

// OK reports whether the outcome is a Success.
func (o Outcome) OK() bool { return o.resp != nil }

// Response returns the parsed response, or nil for a Failure.
func (o Outcome) Response() *BackendResponse { return o.resp }

// Err returns the failure, or nil for a Success.
func (o Outcome) Err() error {
	if o.resp != nil {
		return nil
	}
	if o.err == nil {
		// Zero Outcome: treat as a failure so callers never see "neither".
		return errors.New("submission produced no result")
	}
	return o.err
}

// Description is the textual failure description, empty on Success.
func (o Outcome) Description() string {
	if err := o.Err(); err != nil {
		return err.Error()
	}
	return ""
}
