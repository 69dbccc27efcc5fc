package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/vaulttray/internal/runtimepath"
	"github.com/1broseidon/vaulttray/internal/shell"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the daemon serving vault.
func NewClient(vault string) *Client {
	socketPath, err := runtimepath.SocketPath(vault)
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the socket at socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(command CommandType, payload any, out any) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListCommands retrieves the commands the daemon can run.
func (c *Client) ListCommands() ([]shell.Command, error) {
	var data CommandsData
	if err := c.call(CommandListCommands, nil, &data); err != nil {
		return nil, err
	}
	return data.Commands, nil
}

// RunCommand runs a controller command by ID.
func (c *Client) RunCommand(id string) error {
	return c.call(CommandRunCommand, RunCommandPayload{ID: id}, nil)
}

// GetSettings retrieves every setting in string form.
func (c *Client) GetSettings() (*SettingsData, error) {
	var data SettingsData
	if err := c.call(CommandGetSettings, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetSetting changes a setting; the daemon applies it live.
func (c *Client) SetSetting(key, value string) error {
	return c.call(CommandSetSetting, SetSettingPayload{Key: key, Value: value}, nil)
}

// Reconcile asks the daemon to repair registry drift now.
func (c *Client) Reconcile() (*ReconcileData, error) {
	var data ReconcileData
	if err := c.call(CommandReconcile, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
