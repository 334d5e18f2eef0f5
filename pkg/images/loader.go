package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"lazyimg/pkg/resource"
)

// Cache decodes images fetched through a resource.Fetcher and keeps them
// keyed by URI. It is safe for concurrent use.
type Cache struct {
	fetcher resource.Fetcher

	mu     sync.RWMutex
	images map[string]image.Image
	sizes  map[string]image.Config
}

func NewCache(fetcher resource.Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		images:  make(map[string]image.Image),
		sizes:   make(map[string]image.Config),
	}
}

// Decode returns the decoded image at uri, fetching it on first use.
func (c *Cache) Decode(ctx context.Context, uri string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.images[uri]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	body, _, err := c.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	img, _, err = image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", shorten(uri), err)
	}

	b := img.Bounds()
	c.mu.Lock()
	c.images[uri] = img
	c.sizes[uri] = image.Config{Width: b.Dx(), Height: b.Dy()}
	c.mu.Unlock()
	return img, nil
}

// Cached returns an already decoded image without fetching.
func (c *Cache) Cached(uri string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[uri]
	return img, ok
}

// Size returns the pixel dimensions of a decoded image, if known.
func (c *Cache) Size(uri string) (width, height int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.sizes[uri]
	return cfg.Width, cfg.Height, ok
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

func shorten(uri string) string {
	if len(uri) > 64 {
		return uri[:64] + "..."
	}
	return uri
}
