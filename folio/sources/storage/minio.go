package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"path"
	"time"

	"folio/folio/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the slice of the MinIO client the archive needs.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type SummaryArchive struct {
	client ObjectStore
	bucket string
}

type SummaryObject struct {
	ArticleID   string    `json:"article_id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Bullets     []string  `json:"bullets"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOSecure,
	})
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return client, nil
}

func NewSummaryArchive(client ObjectStore, bucket string) *SummaryArchive {
	return &SummaryArchive{client: client, bucket: bucket}
}

// ObjectKey escapes the article id so ids containing slashes stay one object.
func ObjectKey(articleID string) string {
	return path.Join("summaries", url.PathEscape(articleID)+".json")
}

func (a *SummaryArchive) Put(ctx context.Context, obj SummaryObject) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	key := ObjectKey(obj.ArticleID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", err
	}
	return key, nil
}
