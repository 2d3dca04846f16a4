package files

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
)

const (
	s3KeyPrefix   = "uploads"
	presignExpiry = 15 * time.Minute
)

// overridden in tests
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Store saves uploads to an S3 compatible bucket (AWS, MinIO).
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

var _ core.FileStore = (*S3Store)(nil)

func NewS3Store(ctx context.Context, conf *core.Config) (*S3Store, error) {
	up := conf.Uploads
	if up.S3Bucket == "" {
		return nil, errors.New("uploads S3 bucket is not set")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(up.S3Region)}
	if up.S3AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(up.S3AccessKey, up.S3SecretKey, ""),
		))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if up.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(up.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, presign: s3.NewPresignClient(client), bucket: up.S3Bucket}, nil
}

func objectKey(filename string) string { return path.Join(s3KeyPrefix, filename) }

func (s *S3Store) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if filename == "" || filename != path.Base(filename) {
		return "", errors.Errorf("invalid filename %q", filename)
	}
	err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(filename)),
		Body:   r,
	})
	if err != nil {
		return "", errors.Wrap(err, "putting object")
	}
	return filename, nil
}

// URL returns a short-lived download link for a file saved with Save.
func (s *S3Store) URL(ctx context.Context, filename string) (string, error) {
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(filename)),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", errors.Wrap(err, "presigning object")
	}
	return req.URL, nil
}
