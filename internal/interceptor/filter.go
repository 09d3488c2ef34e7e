package interceptor

import (
	"fmt"
	"net/url"

	"github.com/bmatcuk/doublestar/v4"
)

// RecordFilter decides which unmatched requests are written to the diary.
// Patterns are doublestar globs over "host/path", e.g. "api.example.com/v1/**".
// An exclude match always wins; an empty include list accepts everything.
type RecordFilter struct {
	Include []string
	Exclude []string
}

func (f RecordFilter) Validate() error {
	for _, p := range append(append([]string{}, f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid record pattern %q", p)
		}
	}
	return nil
}

func (f RecordFilter) Allows(u *url.URL) bool {
	name := u.Host + u.EscapedPath()
	for _, p := range f.Exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, p := range f.Include {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
