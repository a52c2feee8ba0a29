package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"

	"github.com/minio/minio-go/v7"
)

// MinioArchive stores each document as JSON at <projectId>/<documentId>.json.
type MinioArchive struct {
	client *minio.Client
	bucket string
}

// NewMinioArchive creates the bucket if it does not exist yet.
func NewMinioArchive(ctx context.Context, client *minio.Client, bucket string) (*MinioArchive, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶 '%s' 失败: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建存储桶 '%s' 失败: %w", bucket, err)
		}
	}
	return &MinioArchive{client: client, bucket: bucket}, nil
}

// ObjectKey returns the object name a document is stored under.
func ObjectKey(projectID, documentID string) string {
	return path.Join(projectID, documentID+".json")
}

func (a *MinioArchive) Put(ctx context.Context, projectID string, doc models.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = a.client.PutObject(ctx, a.bucket, ObjectKey(projectID, doc.ID),
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to archive document %s: %w", doc.ID, err)
	}
	return nil
}

func (a *MinioArchive) Get(ctx context.Context, projectID, documentID string) (models.Document, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, ObjectKey(projectID, documentID), minio.GetObjectOptions{})
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read document %s: %w", documentID, err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return models.Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, projectID, documentID)
		}
		return models.Document{}, fmt.Errorf("failed to read document %s: %w", documentID, err)
	}

	var doc models.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.Document{}, fmt.Errorf("failed to decode document %s: %w", documentID, err)
	}
	return doc, nil
}

func (a *MinioArchive) Delete(ctx context.Context, projectID, documentID string) error {
	err := a.client.RemoveObject(ctx, a.bucket, ObjectKey(projectID, documentID), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return nil
}

var _ interfaces.DocumentArchive = (*MinioArchive)(nil)
