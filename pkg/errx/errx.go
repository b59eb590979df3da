package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error independently of its domain code.
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeInternal      Type = "INTERNAL"
	TypeExternal      Type = "EXTERNAL"
	TypeBusiness      Type = "BUSINESS"
	TypeAuthorization Type = "AUTHORIZATION"
)

// Code is a registered error code, e.g. "MATCHING.EMPTY_POOL".
type Code string

// Error is the structured error carried across the application.
type Error struct {
	Code       Code           `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code so errors.Is works against helper values.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithDetail adds a single key to the error details.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges the given map into the error details.
func (e *Error) WithDetails(details map[string]any) *Error {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// ToHTTPResponse renders the error as a JSON-friendly body.
func (e *Error) ToHTTPResponse() map[string]any {
	body := map[string]any{
		"code":    e.Code,
		"type":    e.Type,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return body
}

// ============================================================================
// Registry
// ============================================================================

type definition struct {
	typ        Type
	httpStatus int
	message    string
}

// Registry holds the codes of one domain under a common prefix.
type Registry struct {
	prefix string
	mu     sync.RWMutex
	codes  map[Code]definition
}

func NewRegistry(prefix string) *Registry {
	return &Registry{prefix: prefix, codes: make(map[Code]definition)}
}

// Register declares a new code. Registering the same name twice panics.
func (r *Registry) Register(name string, typ Type, httpStatus int, message string) Code {
	code := Code(r.prefix + "." + name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.codes[code]; exists {
		panic(fmt.Sprintf("errx: code %s registered twice", code))
	}
	r.codes[code] = definition{typ: typ, httpStatus: httpStatus, message: message}
	return code
}

// New builds an error for a registered code.
func (r *Registry) New(code Code) *Error {
	r.mu.RLock()
	def, ok := r.codes[code]
	r.mu.RUnlock()
	if !ok {
		return &Error{Code: code, Type: TypeInternal, Message: "unknown error", HTTPStatus: http.StatusInternalServerError}
	}
	return &Error{Code: code, Type: def.typ, Message: def.message, HTTPStatus: def.httpStatus}
}

func (r *Registry) NewWithCause(code Code, cause error) *Error {
	return r.New(code).WithCause(cause)
}

// ============================================================================
// Helpers
// ============================================================================

// Wrap turns an arbitrary error into an *Error of the given type.
func Wrap(err error, message string, typ Type) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:       Code("GENERIC." + string(typ)),
		Type:       typ,
		Message:    message,
		HTTPStatus: statusFor(typ),
		Cause:      err,
	}
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether any *Error in the chain carries the code.
func IsCode(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// IsType reports whether the outermost *Error has the given type.
func IsType(err error, typ Type) bool {
	e, ok := As(err)
	return ok && e.Type == typ
}

func statusFor(typ Type) int {
	switch typ {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeAuthorization:
		return http.StatusForbidden
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
