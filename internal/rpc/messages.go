package rpc

import (
	"github.com/msto63/cmdkit/foundation/engine/command"
)

// DispatchRequest runs one line as a short-lived caller
type DispatchRequest struct {
	Caller string `json:"caller"`
	Line   string `json:"line"`
	// WaitMillis keeps collecting responses while the invocation is
	// stepping or awaiting, up to this long; zero returns after the first turn
	WaitMillis int64 `json:"wait_ms,omitempty"`
}

// DispatchReply carries every response delivered to the caller
type DispatchReply struct {
	Responses []*Response `json:"responses"`
}

// CommandsRequest lists the commands a programmatic caller may use
type CommandsRequest struct{}

// CommandsReply is the command listing
type CommandsReply struct {
	Commands []*CommandInfo `json:"commands"`
}

// CommandInfo describes one registered command
type CommandInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases,omitempty"`
	Permission  string   `json:"permission,omitempty"`
	Usage       []string `json:"usage"`
}

// SessionRequest is sent on the Session stream. The first message names
// the caller and may carry a line; later ones carry lines only.
type SessionRequest struct {
	Caller string `json:"caller,omitempty"`
	Line   string `json:"line,omitempty"`
}

// SessionEvent is sent on the Session stream; exactly one field is set
type SessionEvent struct {
	Welcome  *Welcome  `json:"welcome,omitempty"`
	Response *Response `json:"response,omitempty"`
	Announce *Announce `json:"announce,omitempty"`
	Error    *Error    `json:"error,omitempty"`
}

// Welcome identifies the session of a new stream
type Welcome struct {
	Session string `json:"session"`
	Name    string `json:"name"`
}

// Response is one delivered response
type Response struct {
	Success        bool     `json:"success"`
	Code           string   `json:"code,omitempty"`
	Content        []string `json:"content,omitempty"`
	Diagnostics    []string `json:"diagnostics,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	Prompt         string   `json:"prompt,omitempty"`
	Continued      bool     `json:"continued,omitempty"`
	InputRequested bool     `json:"input_requested,omitempty"`
	Text           string   `json:"text"`
}

// Announce is a broadcast from another caller
type Announce struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// Error reports a transport problem that did not end the stream
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newResponse(resp *command.Response, text string) *Response {
	r := &Response{
		Success:        resp.Success,
		Content:        resp.Content,
		Diagnostics:    resp.Diagnostics,
		Suggestions:    resp.Suggestions,
		Prompt:         resp.Prompt,
		Continued:      resp.Continued,
		InputRequested: resp.InputRequested,
		Text:           text,
	}
	if !resp.Success {
		r.Code = resp.Code.String()
	}
	return r
}
