// Package client is a JSON-over-HTTP client with blocking, awaitable and
// streaming calls sharing one request builder and one response classifier.
package client

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Mode int

const (
	ModeBlocking Mode = iota
	ModeAwaitable
)

func (m Mode) String() string {
	switch m {
	case ModeBlocking:
		return "blocking"
	case ModeAwaitable:
		return "awaitable"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "blocking" (or "sync", "") and "awaitable" (or "async").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blocking", "sync":
		return ModeBlocking, nil
	case "awaitable", "async":
		return ModeAwaitable, nil
	}
	return 0, fmt.Errorf("unknown client mode %q", s)
}

// Client holds immutable configuration only; every call builds and owns its
// own request and response, so a Client is safe for concurrent use.
type Client struct {
	baseURL string
	headers http.Header
	mode    Mode
	timeout time.Duration
	split   bufio.SplitFunc
	logger  *slog.Logger

	// Exactly one of blocking/awaitable is set, per mode. streaming is
	// always set and shares the blocking transport configuration.
	blocking  *transport
	awaitable *transport
	streaming *transport
}

type settings struct {
	baseURL string
	token   string
	headers http.Header
	mode    Mode
	timeout time.Duration
	hc      *http.Client
	split   bufio.SplitFunc
	logger  *slog.Logger
}

type Option func(*settings)

func WithBaseURL(u string) Option { return func(s *settings) { s.baseURL = u } }

// WithBearerToken adds "Authorization: Bearer <token>" to the default headers.
func WithBearerToken(token string) Option { return func(s *settings) { s.token = token } }

// WithHeaders sets default headers; per-call headers take precedence.
func WithHeaders(h http.Header) Option {
	return func(s *settings) {
		for k, v := range h {
			s.headers[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}
}

func WithMode(m Mode) Option { return func(s *settings) { s.mode = m } }

// WithTimeout sets the default per-call timeout used when a call sets none.
func WithTimeout(d time.Duration) Option { return func(s *settings) { s.timeout = d } }

// WithHTTPClient sets the underlying transport handle.
func WithHTTPClient(hc *http.Client) Option { return func(s *settings) { s.hc = hc } }

// WithStreamSplit sets how streamed bodies are cut into chunks. The default
// is ScanEvents (server-sent events); bufio.ScanLines suits NDJSON.
func WithStreamSplit(fn bufio.SplitFunc) Option { return func(s *settings) { s.split = fn } }

func WithLogger(l *slog.Logger) Option { return func(s *settings) { s.logger = l } }

func New(opts ...Option) (*Client, error) {
	s := &settings{
		headers: make(http.Header),
		mode:    ModeBlocking,
		split:   ScanEvents,
	}
	for _, fn := range opts {
		fn(s)
	}

	if s.baseURL == "" {
		return nil, fmt.Errorf("client: base url is required")
	}
	if s.token != "" {
		s.headers.Set("Authorization", "Bearer "+s.token)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.hc == nil {
		s.hc = &http.Client{}
	}

	c := &Client{
		baseURL:   strings.TrimRight(s.baseURL, "/"),
		headers:   s.headers,
		mode:      s.mode,
		timeout:   s.timeout,
		split:     s.split,
		logger:    s.logger,
		streaming: newTransport("stream", s.hc),
	}
	switch s.mode {
	case ModeBlocking:
		c.blocking = newTransport("blocking", s.hc)
	case ModeAwaitable:
		c.awaitable = newTransport("awaitable", s.hc)
	default:
		return nil, fmt.Errorf("client: unknown mode %v", s.mode)
	}

	return c, nil
}

// Config is the viper-loadable form of the client options.
type Config struct {
	BaseURL string            `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	Token   string            `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	Mode    string            `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode"`
	Timeout time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`
}

// NewFromConfig builds a Client from cfg; opts are applied after cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	h := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithBearerToken(cfg.Token),
		WithHeaders(h),
		WithMode(mode),
		WithTimeout(cfg.Timeout),
	}
	return New(append(base, opts...)...)
}

func (c *Client) Mode() Mode { return c.mode }

func (c *Client) BaseURL() string { return c.baseURL }
