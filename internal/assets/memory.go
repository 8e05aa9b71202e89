package assets

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// MemoryPrefix is the URL path the MemoryUploader serves under.
const MemoryPrefix = "/assets/"

type memoryAsset struct {
	contentType string
	data        []byte
}

// MemoryUploader keeps assets in process and serves them itself. It stands
// in for the bucket when ASSETS_BUCKET is unset.
type MemoryUploader struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryAsset
}

var _ Uploader = (*MemoryUploader)(nil)

// NewMemoryUploader returns URLs rooted at baseURL, e.g. http://localhost:8111.
func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]memoryAsset),
	}
}

func (m *MemoryUploader) Upload(_ context.Context, userID, filename, contentType string, data []byte) (string, error) {
	contentType, err := checkImage(userID, contentType, data)
	if err != nil {
		return "", err
	}
	name := ObjectName(userID, filename)

	m.mu.Lock()
	m.objects[name] = memoryAsset{contentType: contentType, data: append([]byte(nil), data...)}
	m.mu.Unlock()

	return m.baseURL + MemoryPrefix + name, nil
}

// ServeHTTP serves stored assets under MemoryPrefix.
func (m *MemoryUploader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, MemoryPrefix)

	m.mu.RLock()
	asset, ok := m.objects[name]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", asset.contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(asset.data)
}
