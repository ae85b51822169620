// Package storage adapts remote object storage for avatar and cover-image
// files. The rest of the system only sees upload/delete.
package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
	appcfg "vidstream-api/config"
	"vidstream-api/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// UploadResult identifies a stored object: the public URL handed to clients
// and the storage key needed to delete it later.
type UploadResult struct {
	URL string
	Key string
}

// BlobStore is the external collaborator boundary for media objects.
// Upload consumes the local file: it is removed on every exit path. A missing
// local file yields a zero result, not an error.
type BlobStore interface {
	Upload(ctx context.Context, localPath string) (UploadResult, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store builds a client with static credentials and a custom endpoint,
// so it works against MinIO as well as AWS.
func NewS3Store(cfg appcfg.Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.S3.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.S3.Bucket,
		publicBaseURL: strings.TrimRight(cfg.S3.PublicBaseURL, "/"),
	}, nil
}

func storageKey(localPath string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), filepath.Ext(localPath))
}

func (s *S3Store) Upload(ctx context.Context, localPath string) (UploadResult, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Log.WithField("path", localPath).Warn("Staged upload file is missing, skipping")
			return UploadResult{}, nil
		}
		return UploadResult{}, fmt.Errorf("failed to open staged file: %w", err)
	}
	defer f.Close()

	key := storageKey(localPath)
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload object: %w", err)
	}

	url := s.publicBaseURL + "/" + key
	logger.Log.WithField("url", url).Info("Object uploaded successfully")
	return UploadResult{URL: url, Key: key}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

// KeyFromURL recovers the storage key from a URL this store produced.
// Foreign URLs (placeholders included) yield an empty key.
func (s *S3Store) KeyFromURL(url string) string {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
