package imagecache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c := New()

	_, ok := c.Get(7, 1)
	assert.False(t, ok)

	img := Image{Data: []byte("png-bytes"), MIMEType: "image/png"}
	require.NoError(t, c.Put(7, 1, img))

	got, ok := c.Get(7, 1)
	require.True(t, ok)
	assert.Equal(t, img, got)

	// Same chamber id in another dungeon is a different entry.
	_, ok = c.Get(8, 1)
	assert.False(t, ok)
}

func TestCachePutReplaces(t *testing.T) {
	c := New()
	require.NoError(t, c.Put(7, 1, Image{Data: []byte("v1"), MIMEType: "image/png"}))
	require.NoError(t, c.Put(7, 1, Image{Data: []byte("v2"), MIMEType: "image/webp"}))

	got, ok := c.Get(7, 1)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got.Data)
	assert.Equal(t, "image/webp", got.MIMEType)
	assert.Equal(t, 1, c.Len())
}

func TestCacheRejectsEmptyImage(t *testing.T) {
	c := New()
	assert.Error(t, c.Put(7, 1, Image{MIMEType: "image/png"}))
	assert.Equal(t, 0, c.Len())
}

func TestCacheClear(t *testing.T) {
	c := New()
	require.NoError(t, c.Put(7, 1, Image{Data: []byte("a"), MIMEType: "image/png"}))
	require.NoError(t, c.Put(7, 2, Image{Data: []byte("b"), MIMEType: "image/png"}))
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(7, 1)
	assert.False(t, ok)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := uint64(0); i < 16; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Put(1, i, Image{Data: []byte{byte(i)}, MIMEType: "image/png"})
			c.Get(1, i)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, c.Len())
}
