package mcpserver

import (
	"errors"
	"fmt"
)

// ErrHostedNotConnectable is returned when a hosted descriptor is passed to
// the factory. Hosted providers are declarations for the reasoning backend.
var ErrHostedNotConnectable = errors.New("hosted transports are not connected by the bridge")

// ConnectionError reports a failed connect attempt for one transport.
type ConnectionError struct {
	Name string
	Kind Kind
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s transport %s: connect failed: %v", e.Kind, e.Name, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func connectionError(c MCPClient, err error) *ConnectionError {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr
	}
	return &ConnectionError{Name: c.Name(), Kind: c.Kind(), Err: err}
}
