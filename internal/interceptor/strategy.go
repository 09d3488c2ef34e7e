package interceptor

import (
	"errors"
	"fmt"
)

// Strategy selects what happens when no diary entry matches a request.
type Strategy string

const (
	// StrategyWarn logs the unmatched request and calls the real transport.
	StrategyWarn Strategy = "warn"
	// StrategyError fails the request without touching the network.
	StrategyError Strategy = "error"
	// StrategyIgnore calls the real transport silently.
	StrategyIgnore Strategy = "ignore"
)

// ErrNoMatchingEntry is wrapped by every MissError.
var ErrNoMatchingEntry = errors.New("no matching diary entry")

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyWarn, StrategyError, StrategyIgnore:
		return Strategy(s), nil
	case "":
		return StrategyWarn, nil
	}
	return "", fmt.Errorf("unknown missing entry strategy %q (want warn, error or ignore)", s)
}

// MissError is returned under StrategyError.
type MissError struct {
	Method string
	URL    string
}

func (e *MissError) Error() string {
	return fmt.Sprintf("%s for %s %s", ErrNoMatchingEntry, e.Method, e.URL)
}

func (e *MissError) Unwrap() error { return ErrNoMatchingEntry }
