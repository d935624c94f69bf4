package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// File is one multipart upload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Reader      io.Reader
}

// RequestOptions are per-call settings. At most one body kind may be used:
// Content, JSONBody, or FormData with optional Files.
type RequestOptions struct {
	Content  io.Reader
	FormData url.Values
	Files    []File
	JSONBody any
	Query    url.Values
	Headers  http.Header
	Cookies  []*http.Cookie
	Timeout  time.Duration
}

var methods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPatch:  true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// withTimeout bounds ctx by the call timeout, falling back to the client default.
func (c *Client) withTimeout(ctx context.Context, opts *RequestOptions) (context.Context, context.CancelFunc) {
	d := c.timeout
	if opts != nil && opts.Timeout > 0 {
		d = opts.Timeout
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// newRequest is the request builder shared by every call mode.
func (c *Client) newRequest(ctx context.Context, method, path string, opts *RequestOptions) (*http.Request, error) {
	if !methods[method] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	if opts == nil {
		opts = &RequestOptions{}
	}

	u, err := c.resolve(path, opts.Query)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	for _, ck := range opts.Cookies {
		req.AddCookie(ck)
	}

	return req, nil
}

// resolve joins path onto the base address and merges query values.
// Absolute URLs are used as given.
func (c *Client) resolve(path string, query url.Values) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// hasJSONBody treats a typed nil (pointer, map, slice) like an unset body so
// that it is never sent as the literal null.
func hasJSONBody(v any) bool {
	if v == nil {
		return false
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func encodeBody(opts *RequestOptions) (io.Reader, string, error) {
	hasJSON := hasJSONBody(opts.JSONBody)
	kinds := 0
	if opts.Content != nil {
		kinds++
	}
	if hasJSON {
		kinds++
	}
	if len(opts.FormData) > 0 || len(opts.Files) > 0 {
		kinds++
	}
	if kinds > 1 {
		return nil, "", ErrConflictingBody
	}

	switch {
	case opts.Content != nil:
		return opts.Content, "", nil
	case hasJSON:
		data, err := EncodeJSON(opts.JSONBody)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	case len(opts.Files) > 0:
		return encodeMultipart(opts.FormData, opts.Files)
	case len(opts.FormData) > 0:
		return strings.NewReader(opts.FormData.Encode()), "application/x-www-form-urlencoded", nil
	}
	return nil, "", nil
}

// EncodeJSON serializes a request body through the value's own JSON
// projection (tags, omitempty, MarshalJSON), so members a sparse patch
// leaves nil are not sent. Pre-encoded bodies pass through.
func EncodeJSON(v any) ([]byte, error) {
	switch b := v.(type) {
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	return data, nil
}

func encodeMultipart(fields url.Values, files []File) (io.Reader, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	for k, vs := range fields {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("write form field %s: %w", k, err)
			}
		}
	}
	for _, f := range files {
		if f.Reader == nil {
			return nil, "", fmt.Errorf("file %s: nil reader", f.Field)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err = io.Copy(part, f.Reader); err != nil {
			return nil, "", fmt.Errorf("copy file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
