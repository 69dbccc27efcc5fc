package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/vaulttray/internal/shell"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandListCommands CommandType = "LIST_COMMANDS"
	CommandRunCommand   CommandType = "RUN_COMMAND"
	CommandGetSettings  CommandType = "GET_SETTINGS"
	CommandSetSetting   CommandType = "SET_SETTING"
	CommandReconcile    CommandType = "RECONCILE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds int64        `json:"uptime_seconds"`
	DaemonRunning bool         `json:"daemon_running"`
	Controller    shell.Status `json:"controller"`
}

type CommandsData struct {
	Commands []shell.Command `json:"commands"`
}

type RunCommandPayload struct {
	ID string `json:"id"`
}

type SettingsData struct {
	Path   string            `json:"path,omitempty"`
	Values map[string]string `json:"values"`
}

type SetSettingPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ReconcileData struct {
	Added   []uint32 `json:"added"`
	Removed []uint32 `json:"removed"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
