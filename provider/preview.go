package provider

import (
	"bytes"
	"io"
	"net/http"
)

// PreviewRoundTripper captures the outgoing *http.Request's body
// without touching the network, returning a canned response instead.
// It is the request-preview hook every adapter can use via
// WithHTTPClient, generalizing the teacher's pattern (seen across
// llm/*/client_baseurl_test.go and client_headers_test.go) of swapping
// in a custom http.RoundTripper to capture what an adapter actually
// sent.
type PreviewRoundTripper struct {
	// Response is returned for every request; if nil, a 200 with an
	// empty body is returned.
	Response *http.Response

	// Requests accumulates every request this RoundTripper has seen,
	// each with its body already read into memory so callers can
	// inspect it after the call returns (the original body reader is
	// consumed by then).
	Requests []*http.Request
}

func (rt *PreviewRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	captured := req.Clone(req.Context())
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		captured.Body = io.NopCloser(bytes.NewReader(body))
	}
	rt.Requests = append(rt.Requests, captured)

	if rt.Response != nil {
		return rt.Response, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// NewPreviewClient returns an *http.Client whose Transport is rt.
func NewPreviewClient(rt *PreviewRoundTripper) *http.Client {
	return &http.Client{Transport: rt}
}
