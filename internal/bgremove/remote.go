package bgremove

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/youruser/birdcard/internal/util"
)

// DefaultMaxResponse bounds a removal service answer when Remote.MaxBytes
// is not set.
const DefaultMaxResponse = 32 << 20

// Remote posts the image to an external removal service and returns the
// response body.
type Remote struct {
	URL      string
	Client   *http.Client
	MaxBytes int64
}

// Remove implements Remover.
func (r Remote) Remove(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", http.DetectContentType(data))
	req.Header.Set("Accept", "image/png")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := r.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxResponse
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("removal service response exceeds %d bytes", limit)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("removal service returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// RemoteInitializer probes the service before marking it ready. Any answer
// below 500 counts as reachable.
func RemoteInitializer(url string, timeout time.Duration) Initializer {
	return func(ctx context.Context) (Remover, error) {
		client := util.NewClient(timeout)
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("probing %s: %w", url, err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("probing %s: status %d", url, resp.StatusCode)
		}
		return Remote{URL: url, Client: client}, nil
	}
}

// DisabledInitializer always fails; used when no remover is configured.
func DisabledInitializer() Initializer {
	return func(context.Context) (Remover, error) {
		return nil, errors.New("background removal is disabled")
	}
}
