package protocol

import (
	"encoding/json"
	"strconv"
	"sync/atomic"

	"github.com/muurk/attrstore/internal/attribute"
)

var requestCounter atomic.Uint64

// GenerateRequestID returns a process-unique request ID.
func GenerateRequestID() string {
	return strconv.FormatUint(requestCounter.Add(1), 10)
}

// BuildList builds a list request.
func BuildList() *Request {
	return &Request{ID: GenerateRequestID(), Op: OpList}
}

// BuildDescribe builds a describe request.
func BuildDescribe(name string) *Request {
	return &Request{ID: GenerateRequestID(), Op: OpDescribe, Name: name}
}

// BuildRead builds a read request.
func BuildRead(name string) *Request {
	return &Request{ID: GenerateRequestID(), Op: OpRead, Name: name}
}

// BuildWrite builds a write request carrying value as a JSON string.
func BuildWrite(name, value string) (*Request, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return &Request{ID: GenerateRequestID(), Op: OpWrite, Name: name, Value: raw}, nil
}

func newResponse(req *Request) *Response {
	return &Response{ID: req.ID, Op: req.Op, Name: req.Name}
}

// NewErrorResponse builds a failed response for req.
func NewErrorResponse(req *Request, code ErrorCode, message string) *Response {
	resp := newResponse(req)
	resp.Error = &ErrorInfo{Code: code, Message: message}
	return resp
}

// ErrorResponse builds a failed response classifying a registry error.
func ErrorResponse(req *Request, err error) *Response {
	return NewErrorResponse(req, CodeFor(err), err.Error())
}

// CodeFor maps a registry error to a transport error code.
func CodeFor(err error) ErrorCode {
	switch {
	case attribute.IsNotFoundError(err):
		return CodeNotFound
	case attribute.IsCoercionError(err):
		return CodeCoercion
	case attribute.IsPersistenceSaveError(err), attribute.IsPersistenceLoadError(err):
		return CodePersistence
	default:
		return CodeInternal
	}
}
