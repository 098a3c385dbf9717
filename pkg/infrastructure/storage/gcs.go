package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

// StorageAdapter reads catalog documents from Cloud Storage.
type StorageAdapter struct {
	Client *storage.Client
}

func NewStorageAdapter(client *storage.Client) *StorageAdapter {
	return &StorageAdapter{Client: client}
}

func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) || errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperrors.Wrap(err, apperrors.CodeStorageError, fmt.Sprintf("gs://%s/%s does not exist", bucketName, objectName))
		}
		return nil, apperrors.ErrStorageError.WithCause(err).WithMetadata("object", bucketName+"/"+objectName)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.ErrStorageError.WithCause(err).WithMetadata("object", bucketName+"/"+objectName)
	}
	return data, nil
}

// Write uploads a catalog document, replacing any existing object.
func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return apperrors.ErrStorageError.WithCause(err).WithMetadata("object", bucketName+"/"+objectName)
	}
	if err := wc.Close(); err != nil {
		return apperrors.ErrStorageError.WithCause(err).WithMetadata("object", bucketName+"/"+objectName)
	}
	return nil
}
