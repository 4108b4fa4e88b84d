package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/muurk/attrstore/internal/attribute"
)

// MaxMessageSize is the largest request accepted from a client.
const MaxMessageSize = 64 * 1024

// ParseRequest decodes and validates a client message.
func ParseRequest(data []byte) (*Request, error) {
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("malformed request: %w", err)
	}

	if err := ValidateRequest(&req); err != nil {
		return &req, err
	}

	return &req, nil
}

// ValidateRequest checks that a request has what its operation needs.
func ValidateRequest(req *Request) error {
	if !req.Op.Valid() {
		return fmt.Errorf("unknown op %q", req.Op)
	}

	switch req.Op {
	case OpDescribe, OpRead:
		if req.Name == "" {
			return fmt.Errorf("%s requires a name", req.Op)
		}
	case OpWrite:
		if req.Name == "" {
			return fmt.Errorf("write requires a name")
		}
		if _, err := WriteValue(req); err != nil {
			return err
		}
	}

	return nil
}

// WriteValue returns the text form of a write request's value.
// Strings are taken as is, numbers keep their literal form and booleans
// become "true" or "false".
func WriteValue(req *Request) (string, error) {
	if len(req.Value) == 0 || bytes.Equal(bytes.TrimSpace(req.Value), []byte("null")) {
		return "", fmt.Errorf("write requires a value")
	}

	dec := json.NewDecoder(bytes.NewReader(req.Value))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("malformed value: %w", err)
	}

	text, ok := attribute.ScalarText(v)
	if !ok {
		return "", fmt.Errorf("value must be a string, number or boolean")
	}
	return text, nil
}
