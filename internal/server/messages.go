package server

import (
	"github.com/msto63/cmdkit/foundation/engine/command"
)

// Message types
const (
	TypeLine     = "line"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeWelcome  = "welcome"
	TypeResponse = "response"
	TypeAnnounce = "announce"
	TypeError    = "error"
)

// ClientMessage is sent by a connected client
type ClientMessage struct {
	Type string `json:"type"` // "line", "ping"
	Line string `json:"line,omitempty"`
}

// ServerMessage is sent to a connected client
type ServerMessage struct {
	Type     string           `json:"type"`
	Welcome  *WelcomePayload  `json:"welcome,omitempty"`
	Response *ResponsePayload `json:"response,omitempty"`
	Announce *AnnouncePayload `json:"announce,omitempty"`
	Error    *ErrorPayload    `json:"error,omitempty"`
}

// WelcomePayload identifies the session of a new connection
type WelcomePayload struct {
	Session string `json:"session"`
	Name    string `json:"name"`
	Channel string `json:"channel"`
}

// ResponsePayload is one delivered response
type ResponsePayload struct {
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

// AnnouncePayload is a broadcast from another caller
type AnnouncePayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// ErrorPayload reports a transport problem
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func responsePayload(resp *command.Response, text string) *ResponsePayload {
	p := &ResponsePayload{
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
		p.Code = resp.Code.String()
	}
	return p
}
