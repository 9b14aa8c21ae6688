package content

import (
	"context"
	"io"
	"time"
)

// ObjectStorage stores submitted files
type ObjectStorage interface {
	// Upload writes body under storageKey and returns the object's URL
	Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) (string, error)
	// GenerateDownloadURL returns a time-limited URL that downloads the object as fileName
	GenerateDownloadURL(ctx context.Context, storageKey, fileName string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
