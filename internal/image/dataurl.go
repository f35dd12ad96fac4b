package imagepkg

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

var errBadDataURL = errors.New("malformed data URL")

// EncodeDataURL returns a base64 data URL for data.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL returns the media type and payload of a data URL.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errBadDataURL
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if mime == "" {
		mime = "text/plain"
	}
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, err
		}
		return mime, data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, err
	}
	return mime, []byte(data), nil
}
