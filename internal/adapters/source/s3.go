package source

import (
	"context"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	perr "inferd/internal/platform/errors"
)

// ObjectGetter is the narrow surface the resolver needs from object storage
type ObjectGetter interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3Store reads objects through the AWS SDK using the ambient credential chain
type S3Store struct {
	client *s3.Client
}

// NewS3Store builds an S3Store from the default AWS config (env, shared
// config, instance role). Credential resolution failures surface at boot
func NewS3Store(ctx context.Context) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "load aws config")
	}
	return &S3Store{client: s3.NewFromConfig(cfg)}, nil
}

// Get fetches one object's bytes
func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSource, "s3 get %s/%s", bucket, key)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(out.Body, maxImageBytes+1))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSource, "s3 read %s/%s", bucket, key)
	}
	if len(data) > maxImageBytes {
		return nil, perr.Sourcef("s3 get %s/%s: body exceeds %d bytes", bucket, key, maxImageBytes)
	}
	return data, nil
}
