// Package assets stores user-uploaded images and hands back a public URL.
package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
)

// MaxPhotoSize caps a profile photo upload.
const MaxPhotoSize = 5 << 20

var (
	ErrEmpty       = errors.New("asset is empty")
	ErrTooLarge    = fmt.Errorf("asset exceeds %d bytes", MaxPhotoSize)
	ErrNotAnImage  = errors.New("asset is not an image")
	ErrMissingUser = errors.New("user id is required")
)

// Uploader is the asset host.
type Uploader interface {
	Upload(ctx context.Context, userID, filename, contentType string, data []byte) (string, error)
}

// checkImage validates an upload and resolves its content type, sniffing
// the bytes when the client sent none.
func checkImage(userID, contentType string, data []byte) (string, error) {
	if userID == "" {
		return "", ErrMissingUser
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxPhotoSize {
		return "", ErrTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, contentType)
	}
	return contentType, nil
}

// ObjectName is where a user's photo lives within the bucket.
func ObjectName(userID, filename string) string {
	name := sanitizeFilename(path.Base(filename))
	if name == "" || name == "." || name == "/" {
		name = "photo"
	}
	return path.Join("profiles", userID, name)
}

// sanitizeFilename removes or replaces characters unsafe for object names.
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "", "?", "", "\"", "", "<", "", ">", "", "|", "", "#", "", " ", "_")
	result := replacer.Replace(strings.TrimSpace(s))
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
