// Package imagecache holds generated chamber images for the lifetime of a
// session. Generators share one cache so swapping image backends never
// loses already-generated images.
package imagecache

import (
	"fmt"
	"sync"
)

// Image is a generated chamber illustration.
type Image struct {
	Data     []byte
	MIMEType string
}

type key struct {
	dungeonID uint64
	chamberID uint64
}

// Cache is a session-scoped chamber-image cache. It has an explicit
// lifetime: callers construct it, inject it, and drop it when the session
// ends. The zero value is not usable; use New.
type Cache struct {
	mu     sync.RWMutex
	images map[key]Image
}

func New() *Cache {
	return &Cache{
		images: make(map[key]Image),
	}
}

// Get returns the cached image for the chamber, if one exists.
func (c *Cache) Get(dungeonID, chamberID uint64) (Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[key{dungeonID, chamberID}]
	return img, ok
}

// Put stores the image for the chamber, replacing any previous one.
func (c *Cache) Put(dungeonID, chamberID uint64, img Image) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("refusing to cache empty image for dungeon %d chamber %d", dungeonID, chamberID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[key{dungeonID, chamberID}] = img
	return nil
}

// Len reports the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear drops every cached image. Used when a session ends.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = make(map[key]Image)
}
