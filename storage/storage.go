// Package storage holds uploaded instruction documents as blobs. Production
// deployments use a cloud bucket; development and tests use a local
// directory store.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"hlxportal/config"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
)

// BlobStore writes uploaded documents and reports where they can be fetched
// from.
type BlobStore interface {
	// Put stores the blob under a name derived from the instruction ref
	// and file name, returning the blob name and a url for retrieval.
	Put(ctx context.Context, instructionRef, fileName string, contents io.Reader) (blobName string, url string, err error)
}

// New selects a blob store from the configuration, defaulting to a local
// directory store under the current directory when neither backend is
// configured.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (BlobStore, error) {
	if cfg.Storage.Bucket != "" {
		return NewBucketStore(ctx, cfg.Storage.Bucket, logger)
	}
	dir := cfg.Storage.LocalDir
	if dir == "" {
		dir = "blobs"
	}
	return NewDirStore(dir, logger)
}

// blobName namespaces an uploaded file under its instruction ref with a
// random component, so repeated uploads of the same file name never collide.
func blobName(instructionRef, fileName string) string {
	return path.Join(instructionRef, uuid.NewString(), fileName)
}

// BucketStore stores blobs in a cloud bucket.
type BucketStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
	log        *slog.Logger
}

// NewBucketStore opens the named bucket using ambient credentials.
func NewBucketStore(ctx context.Context, bucketName string, logger *slog.Logger) (*BucketStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not create storage client: %w", err)
	}
	return &BucketStore{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		log:        logger,
	}, nil
}

// Put writes the blob only if it does not already exist. The random blob
// name component means a precondition failure indicates a retried request,
// which is treated as success.
func (b *BucketStore) Put(ctx context.Context, instructionRef, fileName string, contents io.Reader) (string, string, error) {
	name := blobName(instructionRef, fileName)
	writer := b.bucket.Object(name).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, contents); err != nil {
		_ = writer.Close()
		return "", "", fmt.Errorf("failed to write blob %q: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			b.log.Info("blob already exists, skipping", "name", name)
			return name, b.url(name), nil
		}
		return "", "", fmt.Errorf("failed to finalize blob %q: %w", name, err)
	}
	b.log.Debug("blob stored", "bucket", b.bucketName, "name", name)
	return name, b.url(name), nil
}

func (b *BucketStore) url(name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucketName, name)
}
