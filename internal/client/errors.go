package client

import (
	"errors"
	"fmt"

	"github.com/muurk/attrstore/internal/protocol"
)

// RemoteError is a failure reported by the server.
type RemoteError struct {
	Op      protocol.Op
	Name    string
	Code    protocol.ErrorCode
	Message string
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Op, e.Name, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

// AsRemoteError returns the *RemoteError in err's chain, if any.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}

// HasCode reports whether err is a RemoteError with the given code.
func HasCode(err error, code protocol.ErrorCode) bool {
	remoteErr, ok := AsRemoteError(err)
	return ok && remoteErr.Code == code
}
