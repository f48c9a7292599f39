// Package images downloads and decodes pictures referenced by Graph API objects.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/phrazzld/graphfeed/internal/config"
	"github.com/phrazzld/graphfeed/internal/platform/imagecache"
	"github.com/phrazzld/graphfeed/internal/redact"
)

// ErrDecode indicates the downloaded or cached bytes are not a supported image.
var ErrDecode = errors.New("failed to decode image")

// ErrStatus indicates the image server answered with a non-2xx status.
var ErrStatus = errors.New("unexpected image response status")

// ErrTooLarge indicates the image body exceeded the configured limit.
var ErrTooLarge = errors.New("image too large")

// DefaultMaxBytes caps a download when ImagesConfig.MaxBytes is zero.
const DefaultMaxBytes = 16 << 20

// Fetcher loads images, consulting an in-memory cache before the network.
type Fetcher struct {
	cache      *imagecache.Cache
	httpClient *http.Client
	store      bool
	maxBytes   int64
	logger     *slog.Logger
}

// NewFetcher creates a fetcher backed by cache. When cfg.CacheFetched is set,
// downloaded bytes are added to the cache.
func NewFetcher(cfg config.ImagesConfig, cache *imagecache.Cache, httpClient *http.Client, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		cache:      cache,
		httpClient: httpClient,
		store:      cfg.CacheFetched,
		maxBytes:   maxBytes,
		logger:     logger.With("component", "image_fetcher"),
	}
}

// Fetch returns the decoded image at url. A cached entry is still decoded and
// can fail like a download.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	log := f.logger.With("url", redact.URL(url))

	if f.cache != nil {
		if data, ok := f.cache.Get(url); ok {
			log.Debug("image cache hit")
			return decode(data)
		}
	}

	data, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}

	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	if f.store && f.cache != nil {
		f.cache.Set(url, data)
	}
	log.Debug("image downloaded", "bytes", len(data))
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		var urlErr *neturl.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redact.URL(urlErr.URL)
		}
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, f.maxBytes)
	}
	return data, nil
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
