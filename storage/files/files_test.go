package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elearn/core"
)

func TestLocalStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalStore(dir)
	ctx := context.Background()

	ref, err := store.Save(ctx, "me.png", strings.NewReader("v1"))
	require.NoError(t, err)
	assert.Equal(t, "me.png", ref)

	// same name replaces the file
	_, err = store.Save(ctx, "me.png", strings.NewReader("v2"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "me.png"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	for _, name := range []string{"", "../me.png", "a/b.png"} {
		_, err = store.Save(ctx, name, strings.NewReader("x"))
		assert.Error(t, err, name)
	}
}

func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origPut, origPresign := loadDefaultAWSConfig, putObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, putObject, presignGetObject = origLoad, origPut, origPresign
	})
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
}

func s3TestConfig() *core.Config {
	conf := core.NewTestConfig()
	conf.Uploads = core.UploadsConfig{
		Backend:     BackendS3,
		S3Bucket:    "elearn",
		S3Region:    "us-east-1",
		S3Endpoint:  "http://127.0.0.1:9000",
		S3AccessKey: "minioadmin",
		S3SecretKey: "minioadmin",
	}
	return conf
}

func TestS3Store_Save(t *testing.T) {
	stubS3(t)
	ctx := context.Background()

	var gotBucket, gotKey, gotBody string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		gotBucket, gotKey = aws.ToString(in.Bucket), aws.ToString(in.Key)
		data, _ := io.ReadAll(in.Body)
		gotBody = string(data)
		return nil
	}

	store, err := NewS3Store(ctx, s3TestConfig())
	require.NoError(t, err)

	ref, err := store.Save(ctx, "course.jpg", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "course.jpg", ref)
	assert.Equal(t, "elearn", gotBucket)
	assert.Equal(t, "uploads/course.jpg", gotKey)
	assert.Equal(t, "img", gotBody)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		return errors.New("put-fail")
	}
	_, err = store.Save(ctx, "course.jpg", strings.NewReader("img"))
	assert.EqualError(t, err, "putting object: put-fail")
}

func TestS3Store_URL(t *testing.T) {
	stubS3(t)
	ctx := context.Background()

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/elearn/" + aws.ToString(in.Key) + "?sig"}, nil
	}

	store, err := NewS3Store(ctx, s3TestConfig())
	require.NoError(t, err)

	url, err := store.URL(ctx, "me.png")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/elearn/uploads/me.png?sig", url)
}

func TestNew(t *testing.T) {
	stubS3(t)
	ctx := context.Background()

	conf := core.NewTestConfig()
	conf.Uploads.Dir = t.TempDir()
	store, err := New(ctx, conf)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	store, err = New(ctx, s3TestConfig())
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, store)

	conf.Uploads.Backend = "ftp"
	_, err = New(ctx, conf)
	assert.Error(t, err)

	conf = s3TestConfig()
	conf.Uploads.S3Bucket = ""
	_, err = New(ctx, conf)
	assert.Error(t, err)
}
