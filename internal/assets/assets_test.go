package assets

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestCheckImage(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		contentType string
		data        []byte
		wantType    string
		wantErr     error
	}{
		{"explicit type", "u1", "image/jpeg", []byte("jpeg-bytes"), "image/jpeg", nil},
		{"sniffed png", "u1", "", pngHeader, "image/png", nil},
		{"octet stream sniffed", "u1", "application/octet-stream", pngHeader, "image/png", nil},
		{"not an image", "u1", "", []byte("hello world"), "", ErrNotAnImage},
		{"empty", "u1", "image/png", nil, "", ErrEmpty},
		{"no user", "", "image/png", pngHeader, "", ErrMissingUser},
		{"too large", "u1", "image/png", make([]byte, MaxPhotoSize+1), "", ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkImage(tt.userID, tt.contentType, tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, got)
		})
	}
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "profiles/u1/me.png", ObjectName("u1", "me.png"))
	assert.Equal(t, "profiles/u1/passwd", ObjectName("u1", "../../etc/passwd"))
	assert.Equal(t, "profiles/u1/my_photo.png", ObjectName("u1", "my photo.png"))
	assert.Equal(t, "profiles/u1/photo", ObjectName("u1", ""))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"https://storage.googleapis.com/credix-assets/profiles/u1/me.png",
		PublicURL("credix-assets", "profiles/u1/me.png"))
}

func TestMemoryUploader(t *testing.T) {
	m := NewMemoryUploader("http://localhost:8111/")
	url, err := m.Upload(context.Background(), "u1", "me.png", "", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8111/assets/profiles/u1/me.png", url)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/profiles/u1/me.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, pngHeader, body)

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/profiles/u2/me.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err = m.Upload(context.Background(), "u1", "notes.txt", "text/plain", []byte(strings.Repeat("a", 10)))
	assert.ErrorIs(t, err, ErrNotAnImage)
}
