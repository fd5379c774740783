// Package assets loads and caches card image data from local paths,
// file:// URLs and http(s) URLs.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/engine/texture"
	"github.com/Faultbox/midgard-lobby/internal/logger"
)

var log = logger.Named("assets")

// Limits.
const (
	MaxAssetBytes   = 16 << 20
	DefaultCacheCap = 64 << 20
	DefaultTimeout  = 10 * time.Second
)

// ErrNotFound is returned when a local asset does not exist or a remote
// one answers 404.
var ErrNotFound = errors.New("asset not found")

// Manager handles asset loading with an in-memory byte cache.
type Manager struct {
	root   string
	client *http.Client
	cache  *Cache
}

// NewManager creates a manager resolving relative paths against root.
// A nil client uses an http.Client with DefaultTimeout.
func NewManager(root string, client *http.Client) *Manager {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Manager{
		root:   root,
		client: client,
		cache:  NewCache(DefaultCacheCap),
	}
}

// Load returns the bytes behind ref, from cache when possible.
func (m *Manager) Load(ctx context.Context, ref string) ([]byte, error) {
	if data, ok := m.cache.Get(ref); ok {
		return data, nil
	}

	data, err := m.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	m.cache.Set(ref, data)
	return data, nil
}

func (m *Manager) fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return m.fetchHTTP(ctx, ref)
		case "file":
			return readFile(u.Path)
		}
	}

	path := ref
	if !filepath.IsAbs(path) && m.root != "" {
		path = filepath.Join(m.root, filepath.FromSlash(ref))
	}
	return readFile(path)
}

func (m *Manager) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", ref, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", ref, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: status %d", ref, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	if len(data) > MaxAssetBytes {
		return nil, fmt.Errorf("fetch %s: larger than %d bytes", ref, MaxAssetBytes)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxAssetBytes {
		return nil, fmt.Errorf("open %s: larger than %d bytes", path, MaxAssetBytes)
	}
	return os.ReadFile(path)
}

// Image is decoded card artwork. It satisfies mesh.Disposable; a GPU
// texture attached by the renderer is released with it.
type Image struct {
	Ref    string
	Pixels *image.RGBA

	mu  sync.Mutex
	gpu mesh.Disposable
}

// Attach links a GPU texture created from the pixels.
func (img *Image) Attach(gpu mesh.Disposable) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.gpu = gpu
}

// GPU returns the attached texture, if any.
func (img *Image) GPU() mesh.Disposable {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.gpu
}

// RGBA returns the decoded pixels, nil after Dispose.
func (img *Image) RGBA() *image.RGBA {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.Pixels
}

// Dispose releases the GPU texture and drops the pixels.
func (img *Image) Dispose() {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.gpu != nil {
		img.gpu.Dispose()
		img.gpu = nil
	}
	img.Pixels = nil
}

// LoadImage loads and decodes ref. Every call returns a new Image so each
// card owns and disposes its own texture; the encoded bytes stay cached.
func (m *Manager) LoadImage(ctx context.Context, ref string) (mesh.Disposable, error) {
	data, err := m.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	pixels, err := texture.Decode(data, ref)
	if err != nil {
		return nil, err
	}
	log.Debug("image loaded", zap.String("ref", ref), zap.Int("width", pixels.Rect.Dx()), zap.Int("height", pixels.Rect.Dy()))
	return &Image{Ref: ref, Pixels: pixels}, nil
}

// CacheStats returns cache hits and misses.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}

// Close clears the cache.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is an in-memory byte cache bounded by total size. When full, the
// oldest entries are evicted first.
type Cache struct {
	capacity int
	size     int
	data     map[string][]byte
	order    []string
	mu       sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a cache holding at most capacity bytes.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		data:     make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item, evicting old entries to stay within capacity. Items
// larger than the whole cache are not stored.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(data) > c.capacity {
		return
	}
	if old, ok := c.data[key]; ok {
		c.size -= len(old)
		c.remove(key)
	}
	for c.size+len(data) > c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.size -= len(c.data[oldest])
		delete(c.data, oldest)
		c.order = c.order[1:]
	}
	c.data[key] = data
	c.order = append(c.order, key)
	c.size += len(data)
}

func (c *Cache) remove(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.order = nil
	c.size = 0
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// IsRemote reports whether ref is fetched over HTTP.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
