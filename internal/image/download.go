package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/youruser/birdcard/internal/util"
	_ "golang.org/x/image/webp"
)

// ErrCrossOrigin is returned when an image host refuses to serve an image to
// us (401/403), the server-side equivalent of a blocked cross-origin fetch.
var ErrCrossOrigin = errors.New("image host refused cross-origin access")

// Loader resolves silhouette references: data URLs, http(s) URLs and paths
// under the asset root.
type Loader struct {
	Assets   fs.FS
	Client   *http.Client
	MaxBytes int64
}

// Fetch returns the raw bytes behind ref.
func (l *Loader) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		_, data, err := DecodeDataURL(ref)
		return data, err
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		b, err := util.GetBytes(ctx, l.Client, ref, l.MaxBytes)
		if err != nil {
			var se *util.StatusError
			if errors.As(err, &se) && (se.Code == http.StatusForbidden || se.Code == http.StatusUnauthorized) {
				return nil, fmt.Errorf("%w: %v", ErrCrossOrigin, err)
			}
			return nil, err
		}
		return b, nil
	default:
		if l.Assets == nil {
			return nil, fmt.Errorf("no asset root for %q", ref)
		}
		return fs.ReadFile(l.Assets, assetPath(ref))
	}
}

// Load fetches and decodes ref.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	b, err := l.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", shortRef(ref), err)
	}
	return img, nil
}

// assetPath maps "assets/icons/x.png" or "/assets/icons/x.png" to a path
// inside the asset root.
func assetPath(ref string) string {
	p := path.Clean("/" + ref)
	p = strings.TrimPrefix(p, "/")
	return strings.TrimPrefix(p, "assets/")
}

func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		if i := strings.IndexByte(ref, ','); i > 0 {
			return ref[:i]
		}
	}
	return ref
}
