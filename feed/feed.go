// Package feed decodes the episode listing that drives a run.
//
// The document is a JSON object with an "episodes" array whose elements carry
// "program_title" and "stream_url" strings. A missing array fails the whole
// feed; a bad element only fails its own episode.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"episodedl/failure"
)

// DefaultTitle names episodes that carry no usable program_title.
const DefaultTitle = "Unknown"

// Episode is one feed entry, validated when the feed is parsed.
type Episode struct {
	Index     int
	Title     string
	StreamURL string

	err error
}

// Validate reports why the episode cannot be downloaded, if anything.
func (e Episode) Validate() error {
	return e.err
}

type document struct {
	Episodes json.RawMessage `json:"episodes"`
}

type rawEpisode struct {
	ProgramTitle json.RawMessage `json:"program_title"`
	StreamURL    json.RawMessage `json:"stream_url"`
}

// Parse decodes a feed document.
func Parse(data []byte) ([]Episode, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, failure.Wrap(failure.ErrParse, "feed", "decode", "", err)
	}
	var items []json.RawMessage
	if isNull(doc.Episodes) || json.Unmarshal(doc.Episodes, &items) != nil {
		return nil, failure.Wrap(failure.ErrMissingData, "feed", "", "no episodes found", nil)
	}

	episodes := make([]Episode, 0, len(items))
	for i, item := range items {
		episodes = append(episodes, parseEpisode(i, item))
	}
	return episodes, nil
}

func parseEpisode(index int, item json.RawMessage) Episode {
	ep := Episode{Index: index, Title: DefaultTitle}
	var raw rawEpisode
	if err := json.Unmarshal(item, &raw); err != nil {
		ep.err = failure.Wrap(failure.ErrMissingData, "feed", fmt.Sprintf("episode %d", index), "no stream URL found", err)
		return ep
	}
	if title, ok := stringField(raw.ProgramTitle); ok {
		ep.Title = title
	}
	streamURL, ok := stringField(raw.StreamURL)
	if !ok || strings.TrimSpace(streamURL) == "" {
		ep.err = failure.Wrap(failure.ErrMissingData, "feed", fmt.Sprintf("episode %d", index), "no stream URL found", nil)
		return ep
	}
	ep.StreamURL = strings.TrimSpace(streamURL)
	return ep
}

func stringField(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Fetcher returns the body found at a URL.
type Fetcher interface {
	Bytes(ctx context.Context, url string) ([]byte, error)
}

// Fetch downloads and parses the feed at url.
func Fetch(ctx context.Context, f Fetcher, url string) ([]Episode, error) {
	body, err := f.Bytes(ctx, url)
	if err != nil {
		return nil, err
	}
	return Parse(body)
}
