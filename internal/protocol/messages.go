package protocol

import (
	"encoding/json"

	"github.com/muurk/attrstore/internal/attribute"
)

// Op names a transport operation.
type Op string

const (
	OpList     Op = "list"     // All attribute descriptors
	OpDescribe Op = "describe" // One attribute descriptor
	OpRead     Op = "read"     // Current typed value
	OpWrite    Op = "write"    // Store a new raw value
)

// Valid reports whether op is a known operation.
func (op Op) Valid() bool {
	switch op {
	case OpList, OpDescribe, OpRead, OpWrite:
		return true
	default:
		return false
	}
}

// ErrorCode classifies a failed request.
type ErrorCode string

const (
	CodeBadRequest   ErrorCode = "bad_request"
	CodeNotFound     ErrorCode = "not_found"
	CodeAccessDenied ErrorCode = "access_denied"
	CodeCoercion     ErrorCode = "coercion"
	CodePersistence  ErrorCode = "persistence"
	CodeInternal     ErrorCode = "internal"
)

// Request is a client message.
//
//	{"id": "7", "op": "write", "name": "setpoint", "value": 21.5}
//
// Value is only used by write. It may be a JSON string, number or boolean;
// it reaches the registry as text.
type Request struct {
	ID    string          `json:"id,omitempty"`
	Op    Op              `json:"op"`
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Response answers a Request with the same ID and Op.
//
// Read responses carry the value coerced to the attribute's declared type:
// a JSON boolean, integer, number or string.
type Response struct {
	ID         string                 `json:"id,omitempty"`
	Op         Op                     `json:"op"`
	Name       string                 `json:"name,omitempty"`
	Value      json.RawMessage        `json:"value,omitempty"`
	Attributes []attribute.Descriptor `json:"attributes,omitempty"`
	Error      *ErrorInfo             `json:"error,omitempty"`
}

// OK reports whether the request succeeded.
func (r *Response) OK() bool {
	return r.Error == nil
}

// ErrorInfo describes why a request failed.
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
