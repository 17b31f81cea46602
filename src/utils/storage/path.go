package storage

import (
	"path"
	"strings"
	"time"

	"github.com/rs/xid"
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/heic": "heic",
}

func ExtensionForMimeType(mimeType string) string {
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(mimeType))]
	if !ok {
		return "bin"
	}
	return ext
}

// Collision resistant object key: <prefix>/<yyyy>/<mm>/<xid>.<ext>
func BuildImageKey(prefix, mimeType string, now time.Time) string {
	name := xid.NewWithTime(now).String() + "." + ExtensionForMimeType(mimeType)
	return path.Join(strings.Trim(prefix, "/"), now.UTC().Format("2006/01"), name)
}
