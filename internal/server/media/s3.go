package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mkuzmin/blogd/internal/common"
	sc "github.com/mkuzmin/blogd/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// S3Uploader stores images in an S3-compatible bucket (MinIO in development)
// and derives public URLs from the base endpoint and bucket.
type S3Uploader struct {
	config *sc.Config
}

func NewS3Uploader(cfg *sc.Config) *S3Uploader {
	return &S3Uploader{config: cfg}
}

// randomStorageKey spreads objects by date and keeps the original extension
// so the media host serves a sensible content type.
func randomStorageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("images/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), path.Ext(filename))
}

func (u *S3Uploader) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.config.S3RootUser,     // MINIO_ROOT_USER
			u.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(u.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Upload puts the image into the bucket and returns its public URL.
// Any failure is reported as common.ErrorUploadFailed.
func (u *S3Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {

	client, err := u.getClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUploadFailed, err)
	}

	bucket := u.config.S3Bucket
	key := randomStorageKey(filename)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUploadFailed, err)
	}

	publicURL, err := url.JoinPath(u.config.S3BaseEndpoint, bucket, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUploadFailed, err)
	}

	return publicURL, nil
}
