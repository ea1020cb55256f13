package media

import (
	"bytes"
	"context"
	"fmt"
	"path"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
)

const receiptsFolder = "receipts"

// SupabaseUploader stores receipt images in a Supabase Storage bucket.
type SupabaseUploader struct {
	client *storage_go.Client
	bucket string
	logger *log.Logger
}

func NewSupabaseUploader(url, key, bucket string, logger *log.Logger) *SupabaseUploader {
	if logger == nil {
		logger = log.New(log.Config{})
	}
	return &SupabaseUploader{
		client: storage_go.NewClient(url, key, nil),
		bucket: bucket,
		logger: logger.WithComponent(log.ComponentMedia),
	}
}

// Upload stores the image under receipts/ and returns its public URL.
func (u *SupabaseUploader) Upload(ctx context.Context, filename, contentType string, content []byte) (string, error) {
	objectPath := path.Join(receiptsFolder, filename)

	_, err := u.client.UploadFile(u.bucket, objectPath, bytes.NewReader(content), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload receipt %s: %w", filename, err)
	}

	resp := u.client.GetPublicUrl(u.bucket, objectPath)
	u.logger.Info("receipt uploaded", log.FieldPath, objectPath)
	return resp.SignedURL, nil
}
