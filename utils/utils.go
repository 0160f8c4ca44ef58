package utils

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

func IsValidUrl(str string) bool {
	u, err := url.Parse(str)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// ResolveURL resolves ref against base. Absolute refs pass through unchanged.
func ResolveURL(base *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if base == nil {
		return u, nil
	}
	return base.ResolveReference(u), nil
}

// OutputName returns the MP3 path for an episode title: spaces become
// underscores and the name is NFC normalised.
func OutputName(dir, title string) string {
	name := norm.NFC.String(strings.ReplaceAll(title, " ", "_"))
	return filepath.Join(dir, name+".mp3")
}

// Floor0 returns the floor nearest to a multiple of m
// With the exception that ZERO above a block will be floored to the previous block
func Floor0(x, m int) int {
	return (x - 1) / m * m
}
