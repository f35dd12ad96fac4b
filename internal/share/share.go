// Package share packs a card into a URL-safe token so it can be reopened
// from a link or a QR code.
package share

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/compositor"
)

// MaxTokenLen bounds accepted tokens; a card with long texts stays far below.
const MaxTokenLen = 16 << 10

var ErrInvalidToken = errors.New("invalid share token")

// Card is what a share token carries.
type Card struct {
	Form      cards.FormState      `json:"form"`
	Transform compositor.Transform `json:"transform"`
	Image     string               `json:"image,omitempty"`
}

// Encode returns a compressed, base64url token for c. Uploaded images are
// dropped since they would not fit in a link; typed URLs are kept.
func Encode(c Card) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(raw); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode.
func Decode(token string) (Card, error) {
	var c Card
	if token == "" || len(token) > MaxTokenLen {
		return c, ErrInvalidToken
	}
	compressed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	raw, err := io.ReadAll(io.LimitReader(flate.NewReader(bytes.NewReader(compressed)), 1<<20))
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c.Form = c.Form.Normalize()
	c.Transform = c.Transform.Normalize()
	return c, nil
}

// FromSession builds a Card, keeping the source only when it is a URL.
func FromSession(form cards.FormState, t compositor.Transform, src compositor.Source) Card {
	c := Card{Form: form, Transform: t}
	if src.DataURL == "" {
		c.Image = src.URL
	}
	return c
}
