package client

import (
	"fmt"
	"net/http"
)

// transport is one execution strategy's handle on the network.
type transport struct {
	name string
	hc   *http.Client
}

func newTransport(name string, hc *http.Client) *transport {
	return &transport{name: name, hc: hc}
}

func (t *transport) roundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	return resp, nil
}
