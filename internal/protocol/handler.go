package protocol

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/muurk/attrstore/internal/attribute"
	"github.com/muurk/attrstore/internal/logging"
	"go.uber.org/zap"
)

// Registry is the part of attribute.Registry the transport uses.
type Registry interface {
	Descriptors() []attribute.Descriptor
	Descriptor(name string) (attribute.Descriptor, bool)
	Read(name string) (attribute.Value, error)
	Write(name, raw string) error
}

// Handler executes requests against a registry.
//
// Requests are processed one at a time: a write and its state save finish
// before the next request is looked at, whichever connection it came from.
// Access modes are enforced here; the registry itself does not check them.
type Handler struct {
	mu       sync.Mutex
	registry Registry
}

// NewHandler creates a handler serving reg.
func NewHandler(reg Registry) *Handler {
	return &Handler{registry: reg}
}

// HandleMessage parses a raw client message and executes it.
func (h *Handler) HandleMessage(remoteAddr string, data []byte) *Response {
	req, err := ParseRequest(data)
	if err != nil {
		if req == nil {
			req = &Request{}
		}
		logging.LogRequest(remoteAddr, string(req.Op), req.Name, string(CodeBadRequest))
		return NewErrorResponse(req, CodeBadRequest, err.Error())
	}

	resp := h.Handle(req)

	code := ""
	if resp.Error != nil {
		code = string(resp.Error.Code)
	}
	logging.LogRequest(remoteAddr, string(req.Op), req.Name, code)

	return resp
}

// Handle executes a validated request.
func (h *Handler) Handle(req *Request) *Response {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch req.Op {
	case OpList:
		resp := newResponse(req)
		resp.Attributes = h.registry.Descriptors()
		if resp.Attributes == nil {
			resp.Attributes = []attribute.Descriptor{}
		}
		return resp

	case OpDescribe:
		desc, ok := h.registry.Descriptor(req.Name)
		if !ok {
			return ErrorResponse(req, attribute.NewNotFoundError(req.Name))
		}
		resp := newResponse(req)
		resp.Attributes = []attribute.Descriptor{desc}
		return resp

	case OpRead:
		return h.read(req)

	case OpWrite:
		return h.write(req)

	default:
		return NewErrorResponse(req, CodeBadRequest, fmt.Sprintf("unknown op %q", req.Op))
	}
}

func (h *Handler) read(req *Request) *Response {
	desc, ok := h.registry.Descriptor(req.Name)
	if !ok {
		return ErrorResponse(req, attribute.NewNotFoundError(req.Name))
	}
	if !desc.Access.CanRead() {
		return NewErrorResponse(req, CodeAccessDenied,
			fmt.Sprintf("attribute %q is %s", req.Name, desc.Access))
	}

	v, err := h.registry.Read(req.Name)
	if err != nil {
		logging.Error("Failed to read attribute",
			zap.String("attribute", req.Name),
			zap.Error(err),
		)
		return ErrorResponse(req, err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return NewErrorResponse(req, CodeInternal, err.Error())
	}

	resp := newResponse(req)
	resp.Value = data
	return resp
}

func (h *Handler) write(req *Request) *Response {
	desc, ok := h.registry.Descriptor(req.Name)
	if !ok {
		return ErrorResponse(req, attribute.NewNotFoundError(req.Name))
	}
	if !desc.Access.CanWrite() {
		return NewErrorResponse(req, CodeAccessDenied,
			fmt.Sprintf("attribute %q is %s", req.Name, desc.Access))
	}

	value, err := WriteValue(req)
	if err != nil {
		return NewErrorResponse(req, CodeBadRequest, err.Error())
	}

	if err := h.registry.Write(req.Name, value); err != nil {
		logging.Error("Failed to write attribute",
			zap.String("attribute", req.Name),
			zap.Error(err),
		)
		return ErrorResponse(req, err)
	}

	return newResponse(req)
}
