package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Uploader is the subset of s3manager.Uploader used to publish exports.
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Publisher uploads finished export files to a bucket.
type S3Publisher struct {
	bucket   string
	prefix   string
	uploader Uploader
}

// NewS3Publisher builds a publisher backed by the default AWS credential
// chain. An empty region falls back to the shared config.
func NewS3Publisher(bucket, prefix, region string) (*S3Publisher, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewS3PublisherWithUploader(bucket, prefix, s3manager.NewUploader(sess)), nil
}

func NewS3PublisherWithUploader(bucket, prefix string, uploader Uploader) *S3Publisher {
	return &S3Publisher{bucket: bucket, prefix: prefix, uploader: uploader}
}

// Key returns the object key for a local file.
func (p *S3Publisher) Key(localPath string) string {
	return path.Join(p.prefix, filepath.Base(localPath))
}

// Publish uploads localPath and returns the object location.
func (p *S3Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open export file: %w", err)
	}
	defer file.Close()

	out, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.Key(localPath)),
		ContentType: aws.String("text/csv"),
		Body:        file,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}
	return out.Location, nil
}
