package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

// Buckets used by the service.
const (
	BucketTicketPhotos = "ticket-photos"
	BucketDocuments    = "documents"
)

// ErrInvalidKey is returned for bucket or path values that escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// Store uploads blobs and hands back a public URL. Replaced objects are not
// garbage-collected.
type Store interface {
	Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, bucket, objectPath string) error
}

// DiskStore keeps objects in a file-backed bucket under a root directory;
// the HTTP layer serves that directory at the public base URL.
type DiskStore struct {
	root    string
	baseURL string
	bucket  *blob.Bucket
	logger  *zap.Logger
}

// NewDiskStore creates root if needed and opens it as a bucket.
func NewDiskStore(root, publicBaseURL string, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	// temp files stay next to the target so the final rename never crosses devices
	bucket, err := fileblob.OpenBucket(root, &fileblob.Options{NoTempDir: true})
	if err != nil {
		return nil, fmt.Errorf("open storage bucket: %w", err)
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimSuffix(publicBaseURL, "/"),
		bucket:  bucket,
		logger:  logger,
	}, nil
}

// Close releases the bucket.
func (s *DiskStore) Close() error {
	return s.bucket.Close()
}

// Root returns the directory objects are written under.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := objectKey(bucket, objectPath)
	if err != nil {
		return "", err
	}

	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	s.logger.Debug("object stored",
		zap.String("bucket", bucket),
		zap.String("path", objectPath),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))
	return s.baseURL + "/" + key, nil
}

func (s *DiskStore) Delete(ctx context.Context, bucket, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := objectKey(bucket, objectPath)
	if err != nil {
		return err
	}
	err = s.bucket.Delete(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func objectKey(bucket, objectPath string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + strings.ReplaceAll(objectPath, `\`, "/"))
	if clean == "/" {
		return "", ErrInvalidKey
	}
	return bucket + clean, nil
}
