package upload

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/google/uuid"
)

// Dimensions are the natural pixel size of an image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type blob struct {
	data     []byte
	dims     Dimensions
	measured bool
}

// Store keeps uploaded image bytes in memory, addressed by an opaque ref,
// until they are released.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]*blob
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{blobs: make(map[string]*blob)}
}

// Put stores a copy of data and returns its ref.
func (s *Store) Put(data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := "blob:" + uuid.NewString()
	s.blobs[ref] = &blob{data: bytes.Clone(data)}
	return ref
}

// Get returns the bytes behind ref.
func (s *Store) Get(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[ref]
	if !ok {
		return nil, false
	}
	return b.data, true
}

// Release drops the bytes behind ref.
func (s *Store) Release(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, ref)
}

// Len reports how many blobs are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Measure decodes the image header behind ref and caches its dimensions.
// It reports false when the ref is unknown or the format cannot be decoded
// (HEIC/HEIF), which leaves the image unmeasured.
func (s *Store) Measure(ref string) (Dimensions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blobs[ref]
	if !ok {
		return Dimensions{}, false
	}
	if b.measured {
		return b.dims, true
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(b.data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return Dimensions{}, false
	}
	b.dims = Dimensions{Width: cfg.Width, Height: cfg.Height}
	b.measured = true
	return b.dims, true
}
