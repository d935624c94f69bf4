package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrTransport marks a response with status >= 300.
	ErrTransport = errors.New("transport error")
	// ErrDomain marks a 2xx response whose JSON body carries an "error" key.
	ErrDomain = errors.New("domain error")
	// ErrDecode marks a body that does not decode into the requested type.
	ErrDecode = errors.New("decode error")
	// ErrStreamFormat marks a streamed chunk that is neither the termination
	// marker nor JSON-framed.
	ErrStreamFormat = errors.New("stream format error")

	ErrMode              = errors.New("call not supported by client mode")
	ErrConflictingBody   = errors.New("conflicting request body options")
	ErrUnsupportedMethod = errors.New("unsupported method")
)

// ResponseError is a classified failure carrying the response body. Kind is
// ErrTransport or ErrDomain.
type ResponseError struct {
	Kind       error
	Method     string
	URL        string
	StatusCode int
	// Body is the parsed JSON body, or the raw text when it is not JSON.
	Body any
	Raw  []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%v: %s %s: %d: %s", e.Kind, e.Method, e.URL, e.StatusCode, e.message())
}

func (e *ResponseError) Unwrap() error { return e.Kind }

func (e *ResponseError) message() string {
	if api, ok := e.APIError(); ok && api.Message != "" {
		return api.Message
	}
	s := strings.TrimSpace(string(e.Raw))
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}

// FieldError is the per-field entry of a validation failure.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is the backend's structured error body: {code, message, data}.
type APIError struct {
	Code    int                   `json:"code"`
	Message string                `json:"message"`
	Data    map[string]FieldError `json:"data"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// APIError parses the body as {code, message, data}. Domain errors of the
// form {"error": "..."} yield the error text as Message.
func (e *ResponseError) APIError() (*APIError, bool) {
	m, ok := e.Body.(map[string]any)
	if !ok {
		return nil, false
	}

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(e.Raw, &envelope); err != nil {
		return nil, false
	}

	api := &APIError{Code: envelope.Code, Message: envelope.Message}
	if len(envelope.Data) > 0 {
		// data is a per-field map for validation failures; anything else is ignored.
		_ = json.Unmarshal(envelope.Data, &api.Data)
	}
	if api.Message == "" {
		if s, ok := m["error"].(string); ok {
			api.Message = s
		}
	}
	if api.Code == 0 && api.Message == "" {
		return nil, false
	}
	return api, true
}

// ParseError extracts the structured body from any error returned by this package.
func ParseError(err error) (*APIError, bool) {
	var re *ResponseError
	if !errors.As(err, &re) {
		return nil, false
	}
	return re.APIError()
}

// DecodeError reports a body that could not be decoded into Target.
type DecodeError struct {
	Target string
	Body   []byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: into %s: %v", ErrDecode, e.Target, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// StreamFormatError reports a streamed chunk without a recognizable JSON object.
type StreamFormatError struct {
	Chunk  string
	Reason string
}

func (e *StreamFormatError) Error() string {
	chunk := e.Chunk
	if len(chunk) > 128 {
		chunk = chunk[:128] + "..."
	}
	return fmt.Sprintf("%v: %s: %q", ErrStreamFormat, e.Reason, chunk)
}

func (e *StreamFormatError) Unwrap() error { return ErrStreamFormat }
