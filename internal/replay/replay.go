// Package replay re-issues diary entries against the live network to check
// whether fixtures are still current.
package replay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"sofetch/internal/types"
)

type Result struct {
	Method     string      `json:"method"`
	URL        string      `json:"url"`
	WantStatus int         `json:"wantStatus"`
	Status     int         `json:"status"`
	DurationMs int64       `json:"durationMs"`
	Body       []byte      `json:"body,omitempty"`
	Headers    http.Header `json:"headers,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Fresh reports whether the live status equals the recorded one.
func (r *Result) Fresh() bool { return r.Error == "" && r.Status == r.WantStatus }

// Verify sends e through rt. A transport failure is reported in the result
// rather than as an error; err is only set when the request cannot be built.
func Verify(ctx context.Context, rt http.RoundTripper, e types.Entry) (*Result, error) {
	method, ok := e.Method().Value()
	if !ok {
		method = http.MethodGet
	}
	var body io.Reader
	if b := e.RequestBody(); len(b) > 0 {
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, e.Req.Input, body)
	if err != nil {
		return nil, err
	}
	req.Header = e.Req.Options.Headers.HTTP()

	res := &Result{Method: method, URL: e.Req.Input, WantStatus: e.Status()}
	client := &http.Client{Transport: rt}
	start := time.Now()
	resp, err := client.Do(req)
	res.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	defer resp.Body.Close()
	res.Body, _ = io.ReadAll(resp.Body)
	res.Status = resp.StatusCode
	res.Headers = resp.Header.Clone()
	return res, nil
}

// VerifyAll checks entries in order and stops early only when ctx is done.
func VerifyAll(ctx context.Context, rt http.RoundTripper, entries []types.Entry) ([]*Result, error) {
	out := make([]*Result, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		r, err := Verify(ctx, rt, e)
		if err != nil {
			r = &Result{URL: e.Req.Input, WantStatus: e.Status(), Error: err.Error()}
		}
		out = append(out, r)
	}
	return out, nil
}
