// File: response.go
// Title: Responses
// Description: Structured result of one turn. A response is consumed once by
//              the formatter and once by the runner deciding whether to keep
//              the conversation alive.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package command

import (
	"fmt"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
)

// InputCallback receives the caller's next raw line verbatim
type InputCallback func(ctx *Context, input string) (Outcome, error)

// Response is the structured result of a turn
type Response struct {
	Success   bool
	Continued bool
	// InputRequested routes the caller's next line to OnInput
	InputRequested bool
	OnInput        InputCallback
	Prompt         string
	Content        []string
	Code           ckerror.Code
	Diagnostics    []string
	Suggestions    []string
}

// NewResponse returns an empty successful response
func NewResponse() *Response {
	return &Response{Success: true}
}

// Print appends a content line
func (r *Response) Print(line string) *Response {
	r.Content = append(r.Content, line)
	return r
}

// Printf appends a formatted content line
func (r *Response) Printf(format string, args ...any) *Response {
	return r.Print(fmt.Sprintf(format, args...))
}

// Fail marks the response as failed with a message
func (r *Response) Fail(message string) *Response {
	r.Success = false
	if r.Code == "" {
		r.Code = ckerror.CodeExecution
	}
	return r.Print(message)
}

// Empty reports whether there is nothing to deliver
func (r *Response) Empty() bool {
	return r.Success && len(r.Content) == 0 && len(r.Diagnostics) == 0 && r.Prompt == ""
}

// Failure converts an error into a failure response. Coded errors keep
// their code, diagnostics and suggestions; anything else is EXECUTION.
func Failure(err error) *Response {
	r := &Response{Success: false, Code: ckerror.CodeExecution}
	if err == nil {
		return r
	}
	ckErr, ok := ckerror.As(err)
	if !ok {
		r.Content = []string{err.Error()}
		return r
	}
	if ckErr.Code() != ckerror.CodeUnknown {
		r.Code = ckErr.Code()
	}
	r.Content = []string{err.Error()}
	if v, ok := ckErr.Detail("diagnostics"); ok {
		r.Diagnostics, _ = v.([]string)
	}
	if v, ok := ckErr.Detail("suggestions"); ok {
		r.Suggestions, _ = v.([]string)
	}
	return r
}
