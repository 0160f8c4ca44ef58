package playlist

import (
	"context"
	"net/url"

	"episodedl/failure"
	"episodedl/utils"
)

// KeyProvider fetches the key named by the first segment of a media playlist.
// The same key is used for every segment of that playlist.
type KeyProvider struct {
	fetcher Fetcher
}

func NewKeyProvider(f Fetcher) *KeyProvider {
	return &KeyProvider{fetcher: f}
}

// KeyURL resolves the first segment's key URI against base.
func KeyURL(base *url.URL, media *Media) (*url.URL, error) {
	if media == nil || len(media.Segments) == 0 {
		return nil, failure.Wrap(failure.ErrMissingData, "key", "", "media playlist has no segments", nil)
	}
	ref := media.Segments[0].Key
	if ref == nil {
		return nil, failure.Wrap(failure.ErrMissingData, "key", "", "no key found", nil)
	}
	if ref.URI == "" {
		return nil, failure.Wrap(failure.ErrMissingData, "key", "", "invalid key URL", nil)
	}
	u, err := utils.ResolveURL(base, ref.URI)
	if err != nil {
		return nil, failure.Wrap(failure.ErrParse, "key", "resolve", ref.URI, err)
	}
	return u, nil
}

// FetchKey returns the raw key bytes. The length is checked by the cipher.
func (k *KeyProvider) FetchKey(ctx context.Context, base *url.URL, media *Media) ([]byte, error) {
	u, err := KeyURL(base, media)
	if err != nil {
		return nil, err
	}
	return k.fetcher.Bytes(ctx, u.String())
}
