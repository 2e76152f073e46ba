package protocol

import (
	"encoding/json"

	"aios/internal/action"
	"aios/internal/device"
)

// Commands understood by the agent.
const (
	CmdChat   = "chat"
	CmdAction = "action"
	CmdStatus = "status"
	CmdClear  = "clear"
)

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request is the wire-level request envelope. Cmd selects the handler;
// the remaining fields are command-specific.
type Request struct {
	Cmd string `json:"cmd"`

	// Text is the user input for chat.
	Text string `json:"text,omitempty"`

	// Action is the descriptor for direct action execution.
	Action json.RawMessage `json:"action,omitempty"`
}

// Response is the wire-level response envelope.
type Response struct {
	Status string `json:"status"`

	// chat
	Response     string         `json:"response,omitempty"`
	ActionResult *action.Result `json:"action_result,omitempty"`

	// action
	Result *action.Result `json:"result,omitempty"`

	// status
	Running      *bool              `json:"running,omitempty"`
	AIConfigured *bool              `json:"ai_configured,omitempty"`
	System       *device.SystemInfo `json:"system,omitempty"`

	// clear and in-band errors
	Message string `json:"message,omitempty"`
}

// OK returns an ok response with no payload.
func OK() Response {
	return Response{Status: StatusOK}
}

// Error returns an in-band error response. It is a normal reply, not a
// protocol violation; the connection stays open.
func Error(message string) Response {
	return Response{Status: StatusError, Message: message}
}
