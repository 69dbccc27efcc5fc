package tray

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"
)

//go:embed icon.png
var defaultIcon []byte

// DefaultIcon returns the built-in 16x16 icon.
func DefaultIcon() []byte {
	return append([]byte(nil), defaultIcon...)
}

// DecodeIcon turns a configured image into PNG bytes. Accepted forms are a
// data URL, a bare base64 string and a path to an image file. Any image
// the standard decoders understand is re-encoded as PNG.
func DecodeIcon(source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("no icon configured")
	}

	var raw []byte
	switch {
	case strings.HasPrefix(source, "data:"):
		comma := strings.IndexByte(source, ',')
		if comma < 0 || !strings.HasSuffix(source[:comma], ";base64") {
			return nil, errors.New("icon data URL must be base64 encoded")
		}
		data, err := base64.StdEncoding.DecodeString(source[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("invalid icon data URL: %w", err)
		}
		raw = data
	default:
		if _, err := os.Stat(source); err == nil {
			data, err := os.ReadFile(source)
			if err != nil {
				return nil, fmt.Errorf("failed to read icon: %w", err)
			}
			raw = data
			break
		}
		data, err := base64.StdEncoding.DecodeString(source)
		if err != nil {
			return nil, fmt.Errorf("icon is neither a file nor base64 data: %w", err)
		}
		raw = data
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid icon image: %w", err)
	}
	if format == "png" {
		return raw, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

func iconDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
