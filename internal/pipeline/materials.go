package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Faultbox/meshconv/pkg/encoding"
	"github.com/Faultbox/meshconv/pkg/formats"
)

// MaterialCache keeps recently parsed material libraries keyed by absolute
// path, so a batch of OBJ files sharing one mtllib parses it once.
type MaterialCache struct {
	charset string
	cache   *lru.Cache[string, *formats.MTL]
}

// NewMaterialCache creates a cache holding up to size libraries. Library
// text is decoded from charset before parsing.
func NewMaterialCache(size int, charset string) (*MaterialCache, error) {
	cache, err := lru.New[string, *formats.MTL](size)
	if err != nil {
		return nil, fmt.Errorf("creating material cache: %w", err)
	}
	return &MaterialCache{charset: charset, cache: cache}, nil
}

// Get returns the parsed library at path, loading it on a miss.
// Failed loads are not cached.
func (c *MaterialCache) Get(path string) (*formats.MTL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if lib, ok := c.cache.Get(abs); ok {
		return lib, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading MTL file: %w", err)
	}
	data, err = encoding.ToUTF8(c.charset, data)
	if err != nil {
		return nil, err
	}
	lib, err := formats.ParseMTL(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	c.cache.Add(abs, lib)
	return lib, nil
}

// Len returns the number of cached libraries.
func (c *MaterialCache) Len() int {
	return c.cache.Len()
}
