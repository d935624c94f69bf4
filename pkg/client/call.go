package client

import (
	"context"
	"fmt"
	"io"
	"time"
)

// do is the routine shared by the blocking and awaitable modes: build the
// request, run it on the given transport, read and classify the response.
func do[T any](ctx context.Context, c *Client, t *transport, method, path string, opts *RequestOptions) (*Envelope[T], error) {
	ctx, cancel := c.withTimeout(ctx, opts)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := t.roundTrip(req)
	if err != nil {
		c.logger.Debug("request failed", "mode", t.name, "method", method, "path", path, "error", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.logger.Debug("request",
		"mode", t.name,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	return classify[T](resp, body)
}

// Send performs a blocking call and decodes the body into T. Use T = any for
// the raw decoded JSON.
func Send[T any](ctx context.Context, c *Client, method, path string, opts *RequestOptions) (*Envelope[T], error) {
	if c.blocking == nil {
		return nil, fmt.Errorf("%w: Send on %v client", ErrMode, c.mode)
	}
	return do[T](ctx, c, c.blocking, method, path, opts)
}

// Future is the pending result of an awaitable call.
type Future[T any] struct {
	done chan struct{}
	env  *Envelope[T]
	err  error
}

func resolved[T any](env *Envelope[T], err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), env: env, err: err}
	close(f.done)
	return f
}

// Done is closed once the call has completed.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the call completes or ctx is done. Abandoning a Future
// does not cancel the call; cancel the context passed to SendAsync for that.
func (f *Future[T]) Await(ctx context.Context) (*Envelope[T], error) {
	select {
	case <-f.done:
		return f.env, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendAsync starts an awaitable call and returns immediately.
func SendAsync[T any](ctx context.Context, c *Client, method, path string, opts *RequestOptions) *Future[T] {
	if c.awaitable == nil {
		return resolved[T](nil, fmt.Errorf("%w: SendAsync on %v client", ErrMode, c.mode))
	}
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.env, f.err = do[T](ctx, c, c.awaitable, method, path, opts)
	}()
	return f
}

// Call runs a non-streaming call in whichever mode the client was built for.
func Call[T any](ctx context.Context, c *Client, method, path string, opts *RequestOptions) (*Envelope[T], error) {
	switch c.mode {
	case ModeAwaitable:
		return SendAsync[T](ctx, c, method, path, opts).Await(ctx)
	default:
		return Send[T](ctx, c, method, path, opts)
	}
}
