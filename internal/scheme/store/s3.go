package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"schemematch/internal/scheme/catalog"
	"schemematch/pkg/platform/sentinel"
)

// maxObjectSize bounds how much of the catalog object is read.
const maxObjectSize = 16 << 20

// objectGetter is the slice of the S3 API the source needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the catalog document from one object.
type S3Source struct {
	client objectGetter
	bucket string
	key    string
}

func NewS3Source(client objectGetter, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

// NewS3Client builds a client from the default credential chain. A non-empty
// endpoint targets an S3-compatible store and forces path-style addressing.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if region != "" {
		cfg.Region = region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3Source) Name() string { return "s3" }

func (s *S3Source) Load(ctx context.Context) (*catalog.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("catalog object s3://%s/%s: %w", s.bucket, s.key, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get catalog object: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize))
	if err != nil {
		return nil, fmt.Errorf("read catalog object: %w", err)
	}
	return decodeDocument(raw)
}
