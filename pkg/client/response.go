package client

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// Envelope pairs the transport response with its decoded payload. The
// response body has already been consumed.
type Envelope[T any] struct {
	Response *http.Response
	Data     T
}

// classify applies the shared status/error/decode rules to a fully read body.
func classify[T any](resp *http.Response, body []byte) (*Envelope[T], error) {
	if resp.StatusCode >= 300 {
		return nil, newResponseError(ErrTransport, resp, body)
	}

	env := &Envelope[T]{Response: resp}
	if len(bytes.TrimSpace(body)) == 0 {
		return env, nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &DecodeError{Target: "json", Body: body, Err: err}
	}
	// Some backends report failures inside a 2xx envelope.
	if m, ok := parsed.(map[string]any); ok {
		if _, has := m["error"]; has {
			return nil, newResponseError(ErrDomain, resp, body)
		}
	}

	if err := decodeInto(body, parsed, &env.Data); err != nil {
		return nil, err
	}
	return env, nil
}

// decodeInto decodes body into dst. Untyped targets reuse the already
// parsed value.
func decodeInto[T any](body []byte, parsed any, dst *T) error {
	if raw, ok := any(dst).(*any); ok {
		*raw = parsed
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &DecodeError{Target: fmt.Sprintf("%T", *dst), Body: body, Err: err}
	}
	return nil
}

func newResponseError(kind error, resp *http.Response, body []byte) *ResponseError {
	re := &ResponseError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Raw:        body,
		Body:       string(body),
	}
	if resp.Request != nil {
		re.Method = resp.Request.Method
		re.URL = resp.Request.URL.Redacted()
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		re.Body = parsed
	}
	return re
}
