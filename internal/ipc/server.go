package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/vaulttray/internal/runtimepath"
	"github.com/1broseidon/vaulttray/internal/shell"
)

// handlerTimeout bounds a single request; it stays under the client timeout
// so a stalled event loop still produces an error response.
const handlerTimeout = 4 * time.Second

// Handler serves requests against the running controller.
type Handler interface {
	Status(ctx context.Context) (shell.Status, error)
	Commands() []shell.Command
	RunCommand(ctx context.Context, id string) error
	Settings() (path string, values map[string]string)
	SetSetting(ctx context.Context, key, value string) error
	Reconcile(ctx context.Context) (added, removed []uint32, err error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	handler      Handler
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates the IPC server of the daemon serving vault.
func NewServer(vault string, handler Handler) (*Server, error) {
	socketPath, err := runtimepath.SocketPath(vault)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, handler), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, handler Handler) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		handler:    handler,
		startTime:  time.Now(),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandListCommands:
		return s.ok(CommandsData{Commands: s.handler.Commands()})
	case CommandRunCommand:
		return s.handleRunCommand(ctx, req.Payload)
	case CommandGetSettings:
		path, values := s.handler.Settings()
		return s.ok(SettingsData{Path: path, Values: values})
	case CommandSetSetting:
		return s.handleSetSetting(ctx, req.Payload)
	case CommandReconcile:
		return s.handleReconcile(ctx)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus(ctx context.Context) *Response {
	st, err := s.handler.Status(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}
	return s.ok(StatusData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		Controller:    st,
	})
}

func (s *Server) handleRunCommand(ctx context.Context, payload json.RawMessage) *Response {
	var req RunCommandPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid run payload: %v", err))
	}
	if req.ID == "" {
		return NewErrorResponse("id is required")
	}

	log.Printf("IPC: Running command %q", req.ID)
	if err := s.handler.RunCommand(ctx, req.ID); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to run command: %v", err))
	}
	return s.ok(nil)
}

func (s *Server) handleSetSetting(ctx context.Context, payload json.RawMessage) *Response {
	var req SetSettingPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid set payload: %v", err))
	}
	if req.Key == "" {
		return NewErrorResponse("key is required")
	}

	if err := s.handler.SetSetting(ctx, req.Key, req.Value); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set %s: %v", req.Key, err))
	}
	return s.ok(nil)
}

func (s *Server) handleReconcile(ctx context.Context) *Response {
	added, removed, err := s.handler.Reconcile(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reconcile: %v", err))
	}
	if added == nil {
		added = []uint32{}
	}
	if removed == nil {
		removed = []uint32{}
	}
	return s.ok(ReconcileData{Added: added, Removed: removed})
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
