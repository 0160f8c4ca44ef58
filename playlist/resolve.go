package playlist

import (
	"context"
	"net/url"

	"episodedl/failure"
	"episodedl/utils"
)

// Fetcher returns the body found at a URL.
type Fetcher interface {
	Bytes(ctx context.Context, url string) ([]byte, error)
}

// Resolved is a media playlist together with the URL it was loaded from,
// which is the base for its segment and key URIs.
type Resolved struct {
	Media   *Media
	BaseURL *url.URL
}

// Resolver turns the playlist found at a stream URL into a media playlist.
// A master playlist is followed to its first variant and no further.
type Resolver struct {
	fetcher Fetcher
}

func NewResolver(f Fetcher) *Resolver {
	return &Resolver{fetcher: f}
}

// Resolve parses text fetched from baseURL. Master playlists resolve their
// first variant; the variant must itself be a media playlist.
func (r *Resolver) Resolve(ctx context.Context, baseURL string, text []byte) (Resolved, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Resolved{}, failure.Wrap(failure.ErrParse, "resolve", "parse base url", baseURL, err)
	}

	top, err := Parse(text)
	if err != nil {
		return Resolved{}, err
	}
	if media, ok := top.(*Media); ok {
		return Resolved{Media: media, BaseURL: base}, nil
	}

	variantURL, err := selectVariant(base, top.(*Master))
	if err != nil {
		return Resolved{}, err
	}
	body, err := r.fetcher.Bytes(ctx, variantURL.String())
	if err != nil {
		return Resolved{}, err
	}
	second, err := Parse(body)
	if err != nil {
		return Resolved{}, err
	}
	media, ok := second.(*Media)
	if !ok {
		return Resolved{}, failure.Wrap(failure.ErrProtocol, "resolve", variantURL.String(), "expected media playlist, found master playlist", nil)
	}
	return Resolved{Media: media, BaseURL: variantURL}, nil
}

// selectVariant picks the first listed variant.
func selectVariant(base *url.URL, master *Master) (*url.URL, error) {
	if len(master.Variants) == 0 {
		return nil, failure.Wrap(failure.ErrMissingData, "resolve", "select variant", "no variants found in master playlist", nil)
	}
	u, err := utils.ResolveURL(base, master.Variants[0].URI)
	if err != nil {
		return nil, failure.Wrap(failure.ErrParse, "resolve", "variant url", master.Variants[0].URI, err)
	}
	return u, nil
}
