// Package failure holds the error markers shared by every stage of an episode
// download, so callers can classify a failure with errors.Is no matter how deep
// it was wrapped.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetwork       = errors.New("network error")
	ErrParse         = errors.New("parse error")
	ErrMissingData   = errors.New("missing data")
	ErrProtocol      = errors.New("protocol error")
	ErrCrypto        = errors.New("crypto error")
	ErrProcess       = errors.New("process error")
	ErrIO            = errors.New("io error")
	ErrConfiguration = errors.New("configuration error")
)

var kinds = []struct {
	marker error
	label  string
}{
	{ErrNetwork, "network"},
	{ErrParse, "parse"},
	{ErrMissingData, "missing_data"},
	{ErrProtocol, "protocol"},
	{ErrCrypto, "crypto"},
	{ErrProcess, "process"},
	{ErrIO, "io"},
	{ErrConfiguration, "configuration"},
}

// Wrap builds an error message that includes stage context while tagging it
// with marker. A nil marker defaults to ErrIO.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the first marker found in err's chain.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.label
		}
	}
	return "unknown"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "episode failure"
	}
	return strings.Join(parts, ": ")
}
