// ABOUTME: Best-effort cache of the last image each user sent, so a
// ABOUTME: follow-up question can refer back to it
package router

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// ImageCache keeps at most one recent image per user. Admission is
// best effort: ristretto applies writes asynchronously, so a Get
// immediately after Set may miss. Callers must treat a miss as "no
// image context", never as an error.
type ImageCache struct {
	cache *ristretto.Cache
}

func NewImageCache(maxBytes int64) (*ImageCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}
	return &ImageCache{cache: c}, nil
}

func (c *ImageCache) Set(userID string, image []byte) {
	c.cache.Set(userID, image, int64(len(image)))
}

func (c *ImageCache) Get(userID string) ([]byte, bool) {
	v, ok := c.cache.Get(userID)
	if !ok {
		return nil, false
	}
	img, ok := v.([]byte)
	return img, ok
}

// Forget drops the cached image for userID.
func (c *ImageCache) Forget(userID string) {
	c.cache.Del(userID)
}

func (c *ImageCache) Close() {
	c.cache.Close()
}
