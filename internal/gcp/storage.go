package gcp

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// NewStorageClient creates a Cloud Storage client. credentialsFile may be
// empty, in which case application default credentials are used.
func NewStorageClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// UploadPublic writes data to the named object and marks it publicly
// readable, returning the public URL.
func UploadPublic(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, data []byte) (string, error) {
	obj := bucket.Object(objectName)

	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		log.Printf("ERROR: Failed to write object %s: %v", objectName, err)
		return "", fmt.Errorf("failed to write to storage: %w", err)
	}
	if err := writer.Close(); err != nil {
		log.Printf("ERROR: Failed to close writer for %s: %v", objectName, err)
		return "", fmt.Errorf("failed to finalize storage write: %w", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to make object public: %w", err)
	}

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read object attrs: %w", err)
	}
	return PublicURL(attrs.Bucket, attrs.Name), nil
}

// PublicURL builds the canonical public URL for an object.
func PublicURL(bucket, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectName)
}

// DeleteObject removes an object. A missing object is reported as false
// without an error, matching the best-effort delete contract.
func DeleteObject(ctx context.Context, bucket *storage.BucketHandle, objectName string) (bool, error) {
	err := bucket.Object(objectName).Delete(ctx)
	if err == nil {
		return true, nil
	}
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 404 {
		return false, nil
	}
	return false, fmt.Errorf("failed to delete object %s: %w", objectName, err)
}
