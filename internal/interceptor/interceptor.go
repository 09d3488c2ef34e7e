// Package interceptor replays HTTP exchanges from a diary in place of a
// real transport.
//
// An Interceptor is an http.RoundTripper. Start loads a diary and returns
// the transport to hand to the code under test; Stop drops the diary and
// returns the original transport. Nothing global is replaced, so several
// interceptors can be active at once as long as they use different diary
// files.
//
// On a miss the configured Strategy decides between failing and calling the
// real transport. Live responses are appended to the diary when recording
// is enabled.
package interceptor

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sofetch/internal/diary"
	"sofetch/internal/logging"
	"sofetch/internal/metrics"
	"sofetch/internal/types"
)

// Config is usable as its zero value: misses warn and live responses are
// recorded.
type Config struct {
	MissingEntryStrategy Strategy
	// DisableRecording keeps live responses out of the diary.
	DisableRecording bool
}

func DefaultConfig() Config {
	return Config{MissingEntryStrategy: StrategyWarn}
}

// Journal receives a record of every request handled while started.
type Journal interface {
	Put(e *types.Exchange) (string, error)
}

type Interceptor struct {
	next    http.RoundTripper
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics
	journal Journal
	filter  RecordFilter

	mu    sync.RWMutex
	diary *diary.Diary
	err   error
}

type Option func(*Interceptor)

func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Interceptor) { i.metrics = m }
}

func WithJournal(j Journal) Option {
	return func(i *Interceptor) { i.journal = j }
}

func WithRecordFilter(f RecordFilter) Option {
	return func(i *Interceptor) { i.filter = f }
}

// New wraps next, which defaults to http.DefaultTransport. The interceptor
// starts stopped. Without WithLogger, warnings go to stderr.
func New(next http.RoundTripper, cfg Config, opts ...Option) (*Interceptor, error) {
	strategy, err := ParseStrategy(string(cfg.MissingEntryStrategy))
	if err != nil {
		return nil, err
	}
	cfg.MissingEntryStrategy = strategy
	if next == nil {
		next = http.DefaultTransport
	}
	i := &Interceptor{next: next, cfg: cfg, log: logging.New(logging.Config{Level: slog.LevelWarn})}
	for _, opt := range opts {
		opt(i)
	}
	if err := i.filter.Validate(); err != nil {
		return nil, err
	}
	return i, nil
}

// Start loads the diary at fixturePath (diary.DefaultPath when empty) and
// returns the intercepting transport. Calling Start again swaps in the new
// diary.
func (i *Interceptor) Start(fixturePath string) (http.RoundTripper, error) {
	d, err := diary.Open(fixturePath, diary.WithLogger(i.log))
	if err != nil {
		return nil, err
	}
	i.mu.Lock()
	i.diary = d
	i.err = nil
	i.mu.Unlock()

	i.log.Debug("interceptor started",
		"diary", d.Path(),
		"entries", d.Len(),
		"strategy", i.cfg.MissingEntryStrategy,
		"record", !i.cfg.DisableRecording)
	return i, nil
}

// Stop drops the diary and returns the original transport. The diary file
// is left as is.
func (i *Interceptor) Stop() http.RoundTripper {
	i.mu.Lock()
	i.diary = nil
	i.mu.Unlock()
	return i.next
}

func (i *Interceptor) Started() bool { return i.Diary() != nil }

// Diary returns the loaded diary, nil while stopped.
func (i *Interceptor) Diary() *diary.Diary {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.diary
}

// Err returns the last diary write failure of the current session. Such a
// failure does not fail the request that caused it.
func (i *Interceptor) Err() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.err
}

func (i *Interceptor) Client() *http.Client {
	return &http.Client{Transport: i}
}

// RoundTrip serves req from the diary, or applies the miss strategy. While
// stopped it is a plain pass-through to the original transport.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	d := i.Diary()
	if d == nil {
		return i.next.RoundTrip(req)
	}

	start := time.Now()
	c := types.CandidateFrom(req)
	x := &types.Exchange{StartedAt: start, Method: c.Method, URL: c.URL, ContentType: c.ContentType}

	if e, ok := d.FindMatch(c); ok {
		closeBody(req)
		i.metrics.Hit()
		i.log.Debug("diary hit", "method", c.Method, "url", c.URL)
		resp := e.Response(req)
		x.Source, x.Status = types.SourceDiary, resp.StatusCode
		i.journalize(x)
		return resp, nil
	}

	i.metrics.Miss(string(i.cfg.MissingEntryStrategy))
	switch i.cfg.MissingEntryStrategy {
	case StrategyError:
		closeBody(req)
		err := &MissError{Method: c.Method, URL: c.URL}
		x.Source, x.Error = types.SourceMiss, err.Error()
		i.journalize(x)
		return nil, err
	case StrategyWarn:
		i.log.Warn("no matching diary entry",
			"method", c.Method,
			"url", c.URL,
			"contentType", c.ContentType,
			"diary", d.Path())
	}
	return i.passThrough(d, req, x)
}

func (i *Interceptor) passThrough(d *diary.Diary, req *http.Request, x *types.Exchange) (*http.Response, error) {
	x.Source = types.SourceLive
	record := !i.cfg.DisableRecording && i.filter.Allows(req.URL)

	out := req
	var reqBody []byte
	if record && req.Body != nil && req.Body != http.NoBody {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		reqBody = b
		out = req.Clone(req.Context())
		out.Body = io.NopCloser(bytes.NewReader(b))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}
		out.ContentLength = int64(len(b))
	}

	resp, err := i.next.RoundTrip(out)
	i.metrics.LiveCall(err)
	if err != nil {
		x.Error = err.Error()
		i.journalize(x)
		return nil, err
	}
	x.Status = resp.StatusCode

	if record {
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			x.Error = err.Error()
			i.journalize(x)
			return nil, fmt.Errorf("read response body: %w", err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))

		if err := d.Append(types.Capture(req, reqBody, resp, body)); err != nil {
			i.metrics.PersistError()
			i.log.Error("diary write failed", "diary", d.Path(), "url", x.URL, "error", err)
			i.mu.Lock()
			i.err = err
			i.mu.Unlock()
		} else {
			i.metrics.Recorded()
		}
		x.Recorded = true
	}

	i.journalize(x)
	return resp, nil
}

func (i *Interceptor) journalize(x *types.Exchange) {
	if i.journal == nil {
		return
	}
	x.Duration = time.Since(x.StartedAt)
	if _, err := i.journal.Put(x); err != nil {
		i.log.Warn("journal write failed", "url", x.URL, "error", err)
	}
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}
