package domain

import (
	"errors"
	"fmt"
)

// ErrConnection is returned when a handshake, probe or network operation fails.
var ErrConnection = errors.New("connection error")

// ErrAuthFailed is returned when the server rejects the configured credential.
var ErrAuthFailed = fmt.Errorf("%w: authentication failed", ErrConnection)

// ErrNotConnected is returned when a prompt is sent without an active connection.
var ErrNotConnected = errors.New("not connected to MCP server")

// ErrProtocol is returned for malformed or unmatched replies.
var ErrProtocol = errors.New("protocol error")

// ErrRemote is the sentinel matched by RemoteError.
var ErrRemote = errors.New("MCP server error")

// ErrTimeout is returned when a reply does not arrive within the configured wait.
var ErrTimeout = errors.New("timed out waiting for reply")

// ErrParse marks structured-output parsing failures. It never leaves the orchestrator.
var ErrParse = errors.New("parse error")

// ErrRunInProgress is returned when a second run is started on a busy orchestrator.
var ErrRunInProgress = errors.New("an orchestration run is already in progress")

// ErrRunNotFound is returned when a run record cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// RemoteError carries the error field reported by the server.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRemote, e.Message)
}

// Is lets errors.Is(err, ErrRemote) match any RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}
