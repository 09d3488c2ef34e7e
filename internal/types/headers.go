package types

import (
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Headers is the flat header object stored in a diary file.
type Headers map[string]string

// Get looks a header up by case-insensitive key. An exact key wins; among
// keys differing only in case, the first in sorted order is used.
func (h Headers) Get(key string) (string, bool) {
	if v, ok := h[key]; ok {
		return v, true
	}
	for _, k := range slices.Sorted(maps.Keys(h)) {
		if strings.EqualFold(k, key) {
			return h[k], true
		}
	}
	return "", false
}

func (h Headers) Clone() Headers {
	if len(h) == 0 {
		return nil
	}
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// HTTP converts to a net/http header set.
func (h Headers) HTTP() http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out.Set(k, v)
	}
	return out
}

// HeadersFrom flattens multi-value headers with ", ".
func HeadersFrom(in http.Header) Headers {
	if len(in) == 0 {
		return nil
	}
	out := make(Headers, len(in))
	for k, vs := range in {
		out[k] = strings.Join(vs, ", ")
	}
	return out
}
