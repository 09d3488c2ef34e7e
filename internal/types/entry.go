package types

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"
)

// EncodingBase64 marks a body that is not valid UTF-8 text.
const EncodingBase64 = "base64"

const headerContentType = "Content-Type"

// Entry is one captured request/response pair in a diary.
type Entry struct {
	Req Request  `json:"req"`
	Res Response `json:"res"`
}

type Request struct {
	Input   string         `json:"input"`
	Options RequestOptions `json:"options"`
}

type RequestOptions struct {
	Method       Field   `json:"method,omitzero"`
	Headers      Headers `json:"headers,omitempty"`
	Body         string  `json:"body,omitempty"`
	BodyEncoding string  `json:"bodyEncoding,omitempty"`
}

type Response struct {
	Body     string          `json:"body,omitempty"`
	Encoding string          `json:"encoding,omitempty"`
	Options  ResponseOptions `json:"options"`
}

type ResponseOptions struct {
	Headers    Headers `json:"headers,omitempty"`
	Status     int     `json:"status,omitempty"`
	StatusText string  `json:"statusText,omitempty"`
}

// Candidate is the part of an outgoing request an Entry is matched against.
type Candidate struct {
	Method      string
	URL         string
	ContentType string
	// EmptyContentType is set when the request carries a Content-Type
	// header with an empty value, as opposed to none at all.
	EmptyContentType bool
}

func CandidateFrom(req *http.Request) Candidate {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	ct := req.Header.Values(headerContentType)
	c := Candidate{Method: method, URL: req.URL.String()}
	if len(ct) > 0 {
		c.ContentType = ct[0]
		c.EmptyContentType = ct[0] == ""
	}
	return c
}

func (c Candidate) String() string { return c.Method + " " + c.URL }

// NewEntry copies req and res so later changes by the caller do not leak
// into the entry.
func NewEntry(req Request, res Response) Entry {
	return Entry{Req: req, Res: res}.Clone()
}

func (e Entry) Clone() Entry {
	e.Req.Options.Headers = e.Req.Options.Headers.Clone()
	e.Res.Options.Headers = e.Res.Options.Headers.Clone()
	return e
}

func (e Entry) Method() Field { return e.Req.Options.Method }

func (e Entry) ContentType() Field {
	v, ok := e.Req.Options.Headers.Get(headerContentType)
	if !ok {
		return Any()
	}
	return Exactly(v)
}

// Matches reports whether c has the entry's URL, method and content type.
// URL comparison is exact, bodies are not compared.
func (e Entry) Matches(c Candidate) bool {
	return e.Req.Input == c.URL &&
		e.Method().Accepts(c.Method) &&
		e.contentTypeMatch(c)
}

// contentTypeMatch treats a recorded empty content type as a header that
// must be present, so it never matches a request without one.
func (e Entry) contentTypeMatch(c Candidate) bool {
	ct := e.ContentType()
	if v, ok := ct.Value(); ok && v == "" {
		return c.EmptyContentType
	}
	return ct.Accepts(c.ContentType)
}

func (e Entry) Status() int {
	if e.Res.Options.Status == 0 {
		return http.StatusOK
	}
	return e.Res.Options.Status
}

func (e Entry) RequestBody() []byte {
	return decodeBody(e.Req.Options.Body, e.Req.Options.BodyEncoding)
}

func (e Entry) ResponseBody() []byte {
	return decodeBody(e.Res.Body, e.Res.Encoding)
}

// Response builds a fresh response from the captured data. Each call
// returns an independent body.
func (e Entry) Response(req *http.Request) *http.Response {
	status := e.Status()
	text := e.Res.Options.StatusText
	if text == "" {
		text = http.StatusText(status)
	}
	body := e.ResponseBody()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, text),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Res.Options.Headers.HTTP(),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// Capture builds an entry from a live exchange. Only the request's
// content type is kept since it is the only header used for matching.
func Capture(req *http.Request, reqBody []byte, resp *http.Response, respBody []byte) Entry {
	c := CandidateFrom(req)
	var reqHeaders Headers
	if c.ContentType != "" || c.EmptyContentType {
		reqHeaders = Headers{headerContentType: c.ContentType}
	}
	rb, renc := encodeBody(reqBody)
	sb, senc := encodeBody(respBody)
	return Entry{
		Req: Request{
			Input: c.URL,
			Options: RequestOptions{
				Method:       Exactly(c.Method),
				Headers:      reqHeaders,
				Body:         rb,
				BodyEncoding: renc,
			},
		},
		Res: Response{
			Body:     sb,
			Encoding: senc,
			Options: ResponseOptions{
				Headers:    HeadersFrom(resp.Header),
				Status:     resp.StatusCode,
				StatusText: statusText(resp),
			},
		},
	}
}

// statusText strips the code from "200 OK".
func statusText(resp *http.Response) string {
	prefix := fmt.Sprintf("%d ", resp.StatusCode)
	if len(resp.Status) > len(prefix) && resp.Status[:len(prefix)] == prefix {
		return resp.Status[len(prefix):]
	}
	return http.StatusText(resp.StatusCode)
}

func encodeBody(b []byte) (string, string) {
	if len(b) == 0 {
		return "", ""
	}
	if utf8.Valid(b) {
		return string(b), ""
	}
	return base64.StdEncoding.EncodeToString(b), EncodingBase64
}

func decodeBody(s, encoding string) []byte {
	if encoding != EncodingBase64 {
		return []byte(s)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return []byte(s)
	}
	return b
}
