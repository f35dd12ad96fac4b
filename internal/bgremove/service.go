package bgremove

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	imagepkg "github.com/youruser/birdcard/internal/image"
)

// Trigger labels shown while a removal runs.
const (
	LabelIdle       = "Remove background"
	LabelLoading    = "Loading model…"
	LabelProcessing = "Processing…"
)

// ErrNoSource is returned before any work starts when there is nothing to
// process.
var ErrNoSource = errors.New("upload an image or paste a URL first")

// Fetcher reads the bytes behind a silhouette reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Service runs removals against a shared Handle.
type Service struct {
	handle *Handle
	fetch  Fetcher
	logger hclog.Logger
}

func NewService(handle *Handle, fetch Fetcher, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{handle: handle, fetch: fetch, logger: logger}
}

// Handle exposes the capability handle, e.g. for health reporting.
func (s *Service) Handle() *Handle { return s.handle }

// Run removes the background of the image at ref and returns the result as a
// PNG data URL. status receives the trigger label as the run progresses and
// always ends with LabelIdle.
func (s *Service) Run(ctx context.Context, ref string, status func(string)) (string, error) {
	if status == nil {
		status = func(string) {}
	}
	if strings.TrimSpace(ref) == "" {
		return "", ErrNoSource
	}
	defer status(LabelIdle)

	status(LabelLoading)
	remover, err := s.handle.Await(ctx)
	if err != nil {
		s.logger.Error("background removal init failed", "error", err)
		return "", err
	}

	status(LabelProcessing)
	src, err := s.fetch.Fetch(ctx, ref)
	if err != nil {
		s.logger.Error("fetching silhouette failed", "error", err)
		return "", fmt.Errorf("fetching image: %w", err)
	}
	out, err := remover.Remove(ctx, src)
	if err != nil {
		s.logger.Error("background removal failed", "error", err)
		return "", err
	}
	return imagepkg.EncodeDataURL("image/png", out), nil
}

// UserMessage turns a removal error into the text shown to the user.
func UserMessage(err error) string {
	if errors.Is(err, ErrNoSource) {
		return "Upload an image or paste a URL first."
	}
	msg := "Could not remove background.\n\n" + err.Error()
	if errors.Is(err, imagepkg.ErrCrossOrigin) {
		msg += "\n\nThe image host is blocking cross-origin access. Save the image locally and upload it instead."
	} else {
		msg += "\n\nThis was not a cross-origin problem; check that the image is valid and try again."
	}
	return msg
}
