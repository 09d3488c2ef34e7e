// Package har exports diary entries as an HTTP Archive (HAR 1.2) document.
package har

import (
	"net/http"
	"sort"
	"time"

	"sofetch/internal/types"
)

type Document struct {
	Log Log `json:"log"`
}

type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Entries []Entry `json:"entries"`
}

type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Entry struct {
	StartedDateTime time.Time `json:"startedDateTime"`
	Time            int64     `json:"time"` // ms
	Request         Req       `json:"request"`
	Response        Resp      `json:"response"`
	Cache           struct{}  `json:"cache"`
	Timings         Timings   `json:"timings"`
}

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
}

type Content struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
}

type Req struct {
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	HTTPVersion string    `json:"httpVersion"`
	Headers     []Header  `json:"headers"`
	QueryString []Header  `json:"queryString"`
	Cookies     []Header  `json:"cookies"`
	PostData    *PostData `json:"postData,omitempty"`
	HeadersSize int       `json:"headersSize"`
	BodySize    int       `json:"bodySize"`
}

type Resp struct {
	Status      int      `json:"status"`
	StatusText  string   `json:"statusText"`
	HTTPVersion string   `json:"httpVersion"`
	Headers     []Header `json:"headers"`
	Cookies     []Header `json:"cookies"`
	Content     Content  `json:"content"`
	RedirectURL string   `json:"redirectURL"`
	HeadersSize int      `json:"headersSize"`
	BodySize    int      `json:"bodySize"`
}

type Timings struct {
	Send    int `json:"send"`
	Wait    int `json:"wait"`
	Receive int `json:"receive"`
}

const httpVersion = "HTTP/1.1"

// FromEntries converts diary entries in order. Diaries carry no timing, so
// every entry is stamped with created. Wildcard methods are exported as GET.
func FromEntries(in []types.Entry, created time.Time) Document {
	out := Document{
		Log: Log{
			Version: "1.2",
			Creator: Creator{Name: "sofetch", Version: "0.1"},
			Entries: make([]Entry, 0, len(in)),
		},
	}
	for _, e := range in {
		method, ok := e.Method().Value()
		if !ok {
			method = http.MethodGet
		}
		contentType, _ := e.ContentType().Value()

		var post *PostData
		if e.Req.Options.Body != "" {
			post = &PostData{
				MimeType: contentType,
				Text:     e.Req.Options.Body,
				Encoding: e.Req.Options.BodyEncoding,
			}
		}
		status := e.Status()
		statusText := e.Res.Options.StatusText
		if statusText == "" {
			statusText = http.StatusText(status)
		}
		respType, _ := e.Res.Options.Headers.Get("Content-Type")

		out.Log.Entries = append(out.Log.Entries, Entry{
			StartedDateTime: created,
			Request: Req{
				Method:      method,
				URL:         e.Req.Input,
				HTTPVersion: httpVersion,
				Headers:     toH(e.Req.Options.Headers),
				QueryString: []Header{},
				Cookies:     []Header{},
				PostData:    post,
				HeadersSize: -1,
				BodySize:    len(e.RequestBody()),
			},
			Response: Resp{
				Status:      status,
				StatusText:  statusText,
				HTTPVersion: httpVersion,
				Headers:     toH(e.Res.Options.Headers),
				Cookies:     []Header{},
				Content: Content{
					Size:     len(e.ResponseBody()),
					MimeType: respType,
					Text:     e.Res.Body,
					Encoding: e.Res.Encoding,
				},
				HeadersSize: -1,
				BodySize:    len(e.ResponseBody()),
			},
		})
	}
	return out
}

// toH sorts by name so exports are stable.
func toH(in types.Headers) []Header {
	out := make([]Header, 0, len(in))
	for k, v := range in {
		out = append(out, Header{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
