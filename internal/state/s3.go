package state

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source downloads a checkpoint object from an s3://bucket/key URL, for
// stacks whose state lives in a remote backend.
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Source parses an s3://bucket/key URL and builds a source over it
// using the default credential chain.
func NewS3Source(ctx context.Context, rawURL string) (*S3Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "s3" || u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
		return nil, fmt.Errorf("invalid state url %q (want s3://bucket/key)", rawURL)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return &S3Source{
		client: s3.NewFromConfig(cfg),
		bucket: u.Host,
		key:    strings.TrimPrefix(u.Path, "/"),
	}, nil
}

func (s *S3Source) Read(ctx context.Context) (Snapshot, error) {
	buf := s3manager.NewWriteAtBuffer(nil)
	downloader := s3manager.NewDownloader(s.client)

	_, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: downloading s3://%s/%s: %v", ErrNoState, s.bucket, s.key, err)
	}

	snap, err := parseCheckpoint(buf.Bytes())
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: parsing s3://%s/%s: %v", ErrNoState, s.bucket, s.key, err)
	}
	return snap, nil
}
