package assets

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
)

// GCSUploader writes assets to a Cloud Storage bucket. The bucket is expected
// to allow public reads of the profiles/ prefix.
type GCSUploader struct {
	bucket     *storage.BucketHandle
	bucketName string
	timeout    time.Duration
}

var _ Uploader = (*GCSUploader)(nil)

// NewGCSUploader creates an uploader for bucketName on an existing client.
func NewGCSUploader(client *storage.Client, bucketName string) *GCSUploader {
	return &GCSUploader{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		timeout:    2 * time.Minute,
	}
}

// Upload stores the image and returns its public URL.
func (u *GCSUploader) Upload(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	contentType, err := checkImage(userID, contentType, data)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	objectName := ObjectName(userID, filename)
	w := u.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=300"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", objectName, err)
	}
	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", objectName, err)
	}

	return PublicURL(u.bucketName, objectName), nil
}

// PublicURL is the storage.googleapis.com address of an object.
func PublicURL(bucketName, objectName string) string {
	return (&url.URL{
		Scheme: "https",
		Host:   "storage.googleapis.com",
		Path:   "/" + bucketName + "/" + objectName,
	}).String()
}
