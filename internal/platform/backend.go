package platform

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// DefaultTitlePattern matches "<note> - <vault> - <App>" style window titles.
const DefaultTitlePattern = `(^| - ){{vault}}( - |$)`

// CompileTitlePattern substitutes the vault into a title pattern.
func CompileTitlePattern(pattern, vault string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultTitlePattern
	}
	expr := strings.ReplaceAll(pattern, "{{vault}}", regexp.QuoteMeta(vault))
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid title pattern %q: %w", pattern, err)
	}
	return re, nil
}

// WindowID is a platform-neutral window identifier. The host owns the window;
// holders of a WindowID only keep a membership record.
type WindowID uint32

// Window contains metadata for a top-level window.
type Window struct {
	ID    WindowID
	PID   int
	AppID string
	Title string
}

// Disposer releases a subscription. Calling it more than once is a no-op.
type Disposer func()

var (
	// ErrUnsupported is returned when the backend cannot perform an operation
	// on the running platform.
	ErrUnsupported = errors.New("operation not supported by this backend")

	// ErrWindowGone is returned when a window was destroyed before the call.
	ErrWindowGone = errors.New("window no longer exists")
)

// Flags are derived, read-only facts about the running platform.
type Flags struct {
	// SeparateDock is true when the process has a dock presence that can be
	// suppressed independently of its windows (macOS).
	SeparateDock bool

	// TrayClickOpensMenu is true when a left click on the tray icon cannot be
	// told apart from the menu trigger, so the click should open the menu.
	TrayClickOpensMenu bool
}

// FlagsFor returns the platform flags for a GOOS value.
func FlagsFor(goos string) Flags {
	switch goos {
	case "darwin":
		return Flags{SeparateDock: true}
	case "linux", "freebsd", "openbsd", "netbsd":
		return Flags{TrayClickOpensMenu: true}
	default:
		return Flags{}
	}
}

// CurrentFlags returns the flags for the running OS.
func CurrentFlags() Flags {
	return FlagsFor(runtime.GOOS)
}

// UnloadEvent is delivered to in-process before-unload listeners when a window
// is about to close.
type UnloadEvent struct {
	Window   WindowID
	canceled bool
	handled  bool
}

// PreventDefault cancels the default close action.
func (e *UnloadEvent) PreventDefault() { e.canceled = true }

// StopPropagation marks the event as handled so the host does not continue
// with its own close path.
func (e *UnloadEvent) StopPropagation() { e.handled = true }

func (e *UnloadEvent) Canceled() bool { return e.canceled }
func (e *UnloadEvent) Handled() bool  { return e.handled }

// CloseEvent is delivered to process-level listeners for a native close request.
type CloseEvent struct {
	Window   WindowID
	canceled bool
}

// PreventDefault cancels the native close.
func (e *CloseEvent) PreventDefault() { e.canceled = true }

func (e *CloseEvent) Canceled() bool { return e.canceled }

// Windows abstracts the window operations the shell needs from the host.
type Windows interface {
	// FocusedWindow returns the window that currently holds input focus.
	FocusedWindow() (WindowID, bool)
	// InstanceWindows lists the windows belonging to this instance.
	InstanceWindows() ([]WindowID, error)
	// AllWindows lists every window of the host application, across instances.
	AllWindows() ([]WindowID, error)
	Describe(windowID WindowID) (Window, error)

	Show(windowID WindowID) error
	Hide(windowID WindowID) error
	Minimize(windowID WindowID) error
	Maximize(windowID WindowID) error
	Focus(windowID WindowID) error
	Blur(windowID WindowID) error

	IsVisible(windowID WindowID) bool
	IsFocused(windowID WindowID) bool
	IsMaximized(windowID WindowID) bool

	SetSkipTaskbar(windowID WindowID, skip bool) error
	// Destroy force-closes a single window.
	Destroy(windowID WindowID) error
}

// Events is the host subscription API. Every subscription returns a Disposer.
type Events interface {
	OnWindowCreated(fn func(WindowID)) Disposer
	OnFocusGained(fn func(WindowID)) Disposer
	OnWindowDestroyed(windowID WindowID, fn func()) (Disposer, error)
	OnMaximizeChanged(windowID WindowID, fn func(maximized bool)) (Disposer, error)
	// OnBeforeUnload installs an in-process (renderer level) close listener.
	OnBeforeUnload(windowID WindowID, fn func(*UnloadEvent)) (Disposer, error)
	// OnCloseRequested installs a process-management level close listener.
	OnCloseRequested(windowID WindowID, fn func(*CloseEvent)) (Disposer, error)
}

// Process abstracts process-wide host operations.
type Process interface {
	Flags() Flags
	// SetDockHidden suppresses or restores the process-wide dock presence.
	SetDockHidden(hidden bool) error
	// Terminate ends the host process.
	Terminate() error
	// Relaunch restarts the host process.
	Relaunch() error
	// Dispatch schedules fn on the host's event loop.
	Dispatch(fn func())
}

// Host abstracts the desktop runtime the shell controller is attached to.
type Host interface {
	Windows
	Events
	Process
}
