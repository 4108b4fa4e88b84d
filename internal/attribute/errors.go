package attribute

import (
	"fmt"
)

// ErrorType represents the category of a registry error
type ErrorType int

const (
	// ErrTypeUnsupportedType indicates a declaration named an unknown data_type
	ErrTypeUnsupportedType ErrorType = iota
	// ErrTypeUnsupportedAccessMode indicates a declaration named an unknown write_type
	ErrTypeUnsupportedAccessMode
	// ErrTypeCoercion indicates a stored raw value does not parse as its declared type
	ErrTypeCoercion
	// ErrTypeNotFound indicates the attribute name is not registered
	ErrTypeNotFound
	// ErrTypePersistenceLoad indicates the state file could not be read or parsed
	ErrTypePersistenceLoad
	// ErrTypePersistenceSave indicates the state file could not be written
	ErrTypePersistenceSave
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeUnsupportedType:
		return "Unsupported Type"
	case ErrTypeUnsupportedAccessMode:
		return "Unsupported Access Mode"
	case ErrTypeCoercion:
		return "Coercion Error"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypePersistenceLoad:
		return "Persistence Load Error"
	case ErrTypePersistenceSave:
		return "Persistence Save Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by registry operations
type Error struct {
	Type      ErrorType // Category of error
	Attribute string    // Attribute name (empty for whole-registry operations)
	Message   string    // Human-readable error message
	Err       error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Attribute != "" {
		msg = fmt.Sprintf("attribute %q: %s", e.Attribute, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewUnsupportedTypeError creates an error for an unknown data_type
func NewUnsupportedTypeError(name, dataType string) *Error {
	return &Error{
		Type:      ErrTypeUnsupportedType,
		Attribute: name,
		Message: fmt.Sprintf("given data_type %q unsupported, supported are: %s, %s, %s, %s, %s",
			dataType, DevBoolean, DevLong, DevDouble, DevFloat, DevString),
	}
}

// NewUnsupportedAccessModeError creates an error for an unknown write_type
func NewUnsupportedAccessModeError(name, writeType string) *Error {
	return &Error{
		Type:      ErrTypeUnsupportedAccessMode,
		Attribute: name,
		Message: fmt.Sprintf("given write_type %q unsupported, supported are: %s, %s, %s, %s",
			writeType, WriteTypeRead, WriteTypeWrite, WriteTypeReadWrite, WriteTypeReadWithWrite),
	}
}

// NewCoercionError creates an error for a raw value that does not match its type
func NewCoercionError(name string, dt DataType, raw string, err error) *Error {
	return &Error{
		Type:      ErrTypeCoercion,
		Attribute: name,
		Message:   fmt.Sprintf("cannot convert %q to %s", raw, dt),
		Err:       err,
	}
}

// NewNotFoundError creates an error for an unregistered attribute name
func NewNotFoundError(name string) *Error {
	return &Error{
		Type:      ErrTypeNotFound,
		Attribute: name,
		Message:   "not registered",
	}
}

// NewPersistenceLoadError creates an error for an unreadable state file
func NewPersistenceLoadError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypePersistenceLoad,
		Message: message,
		Err:     err,
	}
}

// NewPersistenceSaveError creates an error for a failed state file write
func NewPersistenceSaveError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypePersistenceSave,
		Message: message,
		Err:     err,
	}
}

// hasType walks the whole error tree, so a joined error matches if any of
// its members does.
func hasType(err error, et ErrorType) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		return e.Type == et || hasType(e.Err, et)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if hasType(inner, et) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return hasType(e.Unwrap(), et)
	default:
		return false
	}
}

// IsUnsupportedTypeError checks if an error is an unsupported data_type error
func IsUnsupportedTypeError(err error) bool {
	return hasType(err, ErrTypeUnsupportedType)
}

// IsUnsupportedAccessModeError checks if an error is an unsupported write_type error
func IsUnsupportedAccessModeError(err error) bool {
	return hasType(err, ErrTypeUnsupportedAccessMode)
}

// IsCoercionError checks if an error is a coercion error
func IsCoercionError(err error) bool {
	return hasType(err, ErrTypeCoercion)
}

// IsNotFoundError checks if an error is a not-found error
func IsNotFoundError(err error) bool {
	return hasType(err, ErrTypeNotFound)
}

// IsPersistenceLoadError checks if an error is a state load error
func IsPersistenceLoadError(err error) bool {
	return hasType(err, ErrTypePersistenceLoad)
}

// IsPersistenceSaveError checks if an error is a state save error
func IsPersistenceSaveError(err error) bool {
	return hasType(err, ErrTypePersistenceSave)
}
