// Package certs caches the RSA public keys used to verify bearer tokens.
//
// The key set is fetched from a URL serving a JSON object of kid -> PEM
// (public key or X.509 certificate). Snapshots are immutable and swapped
// atomically; concurrent callers share one in-flight fetch.
package certs

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrRefreshFailed = errors.New("signer key refresh failed")
	ErrNoUsableKeys  = errors.New("signer key set contains no usable RSA keys")
)

// maxKeySetBytes bounds the key set response body.
const maxKeySetBytes = 1 << 20

// KeySet is an immutable snapshot of signer keys.
type KeySet struct {
	Keys      map[string]*rsa.PublicKey
	FetchedAt time.Time
}

// Key looks up the key for kid. There is no fallback key.
func (k *KeySet) Key(kid string) (*rsa.PublicKey, bool) {
	if k == nil || kid == "" {
		return nil, false
	}
	key, ok := k.Keys[kid]
	return key, ok
}

func (k *KeySet) Len() int {
	if k == nil {
		return 0
	}
	return len(k.Keys)
}

// Fetcher retrieves the raw kid -> PEM map.
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]string, error)
}

// HTTPFetcher fetches the key set with a GET request.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher uses http.DefaultClient when client is nil. Deadlines come
// from the context passed to Fetch.
func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{url: url, client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build key set request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key set: unexpected status %d", resp.StatusCode)
	}

	var raw map[string]string
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode key set: %w", err)
	}
	return raw, nil
}

// parseKeys converts PEM entries to RSA keys. Entries that fail to parse are
// returned by kid in skipped and left out of the result.
func parseKeys(raw map[string]string) (keys map[string]*rsa.PublicKey, skipped []string) {
	keys = make(map[string]*rsa.PublicKey, len(raw))
	for kid, pemText := range raw {
		if kid == "" {
			skipped = append(skipped, kid)
			continue
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemText))
		if err != nil {
			skipped = append(skipped, kid)
			continue
		}
		keys[kid] = key
	}
	return keys, skipped
}
