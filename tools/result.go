package tools

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MissingParamError reports a required parameter that was absent or empty.
type MissingParamError struct {
	Tool  string
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("'%s' parameter is required for %s", e.Param, e.Tool)
}

// UnknownToolError reports a tool name that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool '%s'", e.Name)
}

// ServiceError wraps a failed downstream call.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("calling %s service: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Result is the outcome of a dispatch: the downstream JSON body on success,
// a descriptive message on failure.
type Result struct {
	Value json.RawMessage
	Err   string
}

// Success wraps a downstream body.
func Success(v json.RawMessage) Result {
	return Result{Value: v}
}

// Failure turns err into the message the model will read.
func Failure(err error) Result {
	return Result{Err: Describe(err)}
}

// Failed reports whether the result carries an error message.
func (r Result) Failed() bool {
	return r.Err != ""
}

// Content serializes the result for a tool turn. Success and failure are
// both plain JSON values; the model sees no other distinction.
func (r Result) Content() string {
	if r.Failed() || len(r.Value) == 0 {
		b, _ := json.Marshal(r.Err)
		return string(b)
	}
	b, err := json.Marshal(r.Value)
	if err != nil {
		b, _ = json.Marshal(string(r.Value))
	}
	return string(b)
}

// Describe renders a tool error as a model-consumable message.
func Describe(err error) string {
	var missing *MissingParamError
	var unknown *UnknownToolError
	var service *ServiceError
	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf("Error: '%s' parameter is required for %s.", missing.Param, missing.Tool)
	case errors.As(err, &unknown):
		return fmt.Sprintf("Error: Unknown tool '%s'.", unknown.Name)
	case errors.As(err, &service):
		return fmt.Sprintf("Error calling %s service: %v", service.Service, service.Err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
