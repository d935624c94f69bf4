package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

const maxStreamChunk = 4 << 20

// open sends a streaming request and checks the status. The caller owns the
// returned body.
func (c *Client) open(ctx context.Context, method, path string, opts *RequestOptions) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}
	resp, err := c.streaming.roundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return nil, newResponseError(ErrTransport, resp, body)
	}
	c.logger.Debug("stream opened", "method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

// Stream sends one request and yields each JSON object found in the body as
// it arrives, decoded into T (T = any for raw JSON). The end of the stream,
// either the termination marker or the end of the body, is signalled by one
// final Envelope whose Data is nil. Errors are yielded once and end the
// sequence. The body is released on every exit path, including when the
// consumer stops early.
func Stream[T any](ctx context.Context, c *Client, method, path string, opts *RequestOptions) iter.Seq2[Envelope[*T], error] {
	return func(yield func(Envelope[*T], error) bool) {
		ctx, cancel := c.withTimeout(ctx, opts)
		defer cancel()

		resp, err := c.open(ctx, method, path, opts)
		if err != nil {
			yield(Envelope[*T]{}, err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64<<10), maxStreamChunk)
		sc.Split(c.split)

		var objects objectScanner
		for sc.Scan() {
			chunk := sc.Text()
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			payload, ok := eventPayload(chunk)
			if !ok {
				continue
			}
			if strings.TrimSpace(payload) == TerminationMarker {
				if rest, open := objects.pending(); open {
					yield(Envelope[*T]{Response: resp}, &StreamFormatError{Chunk: rest, Reason: "termination marker inside an object"})
					return
				}
				yield(Envelope[*T]{Response: resp}, nil)
				return
			}

			found, err := objects.feed(payload)
			if err != nil {
				yield(Envelope[*T]{Response: resp}, err)
				return
			}
			for _, obj := range found {
				v, err := decodeStreamItem[T](obj)
				if err != nil {
					yield(Envelope[*T]{Response: resp}, err)
					return
				}
				if !yield(Envelope[*T]{Response: resp, Data: v}, nil) {
					return
				}
			}
		}
		if err = sc.Err(); err != nil {
			yield(Envelope[*T]{Response: resp}, fmt.Errorf("read stream: %w", err))
			return
		}
		if rest, open := objects.pending(); open {
			yield(Envelope[*T]{Response: resp}, &StreamFormatError{Chunk: rest, Reason: "stream ended inside an object"})
			return
		}

		yield(Envelope[*T]{Response: resp}, nil)
	}
}

func decodeStreamItem[T any](obj string) (*T, error) {
	v := new(T)
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return nil, &DecodeError{Target: fmt.Sprintf("%T", *v), Body: []byte(obj), Err: err}
	}
	return v, nil
}

// StreamRaw yields the body as unparsed byte chunks, for payloads that are
// not JSON-framed. Each yielded slice is owned by the consumer.
func StreamRaw(ctx context.Context, c *Client, method, path string, opts *RequestOptions) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		ctx, cancel := c.withTimeout(ctx, opts)
		defer cancel()

		resp, err := c.open(ctx, method, path, opts)
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		buf := make([]byte, 32<<10)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if !yield(chunk, nil) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("read stream: %w", err))
				return
			}
		}
	}
}
