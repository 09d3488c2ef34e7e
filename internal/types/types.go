package types

import "time"

// Source says where the response for an exchange came from.
type Source string

const (
	SourceDiary Source = "diary"
	SourceLive  Source = "live"
	SourceMiss  Source = "miss"
)

// Exchange is a journal record of one request handled by an interceptor.
type Exchange struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	Method      string `json:"method"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`

	Status   int    `json:"status"`
	Source   Source `json:"source"`
	Recorded bool   `json:"recorded"`

	Error string `json:"error,omitempty"`
}
