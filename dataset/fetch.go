// Package dataset makes the buildings dataset available locally, downloading and caching it as needed.
package dataset

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/octosql"
)

const DefaultURL = "https://hub.arcgis.com/api/v3/datasets/2163df5803044dc3a8f6b6054092fc71_0/downloads/data?format=geojson&spatialRefId=4326&where=1%3D1"

const DefaultTimeout = 5 * time.Minute

var DefaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0",
	"Accept-Language": "en-US,en;q=0.5",
	"Connection":      "keep-alive",
}

// Fetcher makes sure a file exists at path. Calling it again once it does is a no-op.
type Fetcher interface {
	EnsurePresent(ctx context.Context, path string) error
}

// HTTPFetcher downloads the document with a single GET request. It doesn't retry.
type HTTPFetcher struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Client  *http.Client
}

func NewHTTPFetcher(url string, headers map[string]string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		URL:     url,
		Headers: headers,
		Timeout: timeout,
		Client:  http.DefaultClient,
	}
}

func (f *HTTPFetcher) EnsurePresent(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return octosql.WrapIOError(err, "couldn't stat dataset file")
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return errors.Wrap(err, "couldn't create request")
	}
	for k, v := range f.Headers {
		req.Header.Set(k, v)
	}

	log.Printf("downloading dataset from %s", f.URL)
	start := time.Now()
	res, err := f.Client.Do(req)
	if err != nil {
		return octosql.WrapIOError(err, "couldn't download dataset")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return octosql.WrapIOError(errors.Errorf("unexpected status: %s", res.Status), "couldn't download dataset")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return octosql.WrapIOError(err, "couldn't create dataset directory")
	}
	tmpPath := path + ".download"
	out, err := os.Create(tmpPath)
	if err != nil {
		return octosql.WrapIOError(err, "couldn't create dataset file")
	}
	defer os.Remove(tmpPath)
	n, err := io.Copy(out, res.Body)
	if err != nil {
		out.Close()
		return octosql.WrapIOError(err, "couldn't write dataset file")
	}
	if err := out.Close(); err != nil {
		return octosql.WrapIOError(err, "couldn't close dataset file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return octosql.WrapIOError(err, "couldn't move dataset file into place")
	}
	log.Printf("downloaded %d bytes in %s", n, time.Since(start))
	return nil
}
