package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// AssetStore decodes icons from the asset root and keeps them in memory.
// Icons live under icons/ as PNG with a WebP sibling.
type AssetStore struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]image.Image
}

func NewAssetStore(fsys fs.FS) *AssetStore {
	return &AssetStore{fsys: fsys, cache: map[string]image.Image{}}
}

// Icon returns the decoded icon called name under icons/.
func (s *AssetStore) Icon(name string) (image.Image, error) {
	return s.Image(path.Join("icons", name))
}

// Image returns the decoded asset at base (a path without extension),
// preferring the PNG and falling back to the WebP sibling.
func (s *AssetStore) Image(base string) (image.Image, error) {
	s.mu.Lock()
	img, ok := s.cache[base]
	s.mu.Unlock()
	if ok {
		return img, nil
	}

	var lastErr error
	for _, ext := range []string{".png", ".webp"} {
		b, err := fs.ReadFile(s.fsys, base+ext)
		if err != nil {
			lastErr = err
			continue
		}
		img, err = imaging.Decode(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("decoding %s%s: %w", base, ext, err)
		}
		s.mu.Lock()
		s.cache[base] = img
		s.mu.Unlock()
		return img, nil
	}
	return nil, lastErr
}

// Preload decodes every named icon concurrently. Missing icons are skipped;
// decode failures are returned.
func (s *AssetStore) Preload(ctx context.Context, names []string) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, name := range names {
		g.Go(func() error {
			if _, err := s.Icon(name); err != nil && !isNotExist(err) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func isNotExist(err error) bool {
	return err != nil && errors.Is(err, fs.ErrNotExist)
}
