// Package archive uploads rotated AOL segment files to S3 for
// off-box retention. Entirely optional and best-effort: a failed upload
// is logged, never escalated, and never blocks AOL rotation (§2 domain
// stack enrichment).
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cc-kvstore/kvstored/pkg/log"
)

// Archiver uploads segment files to one S3 bucket/prefix.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// New loads AWS credentials and region from the default SDK credential
// chain (environment, shared config, instance role) and returns an
// Archiver targeting bucket/prefix.
func New(ctx context.Context, bucket, prefix string) (*Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive: loading AWS config: %w", err)
	}
	return &Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Upload reads localPath and puts it to the configured bucket under
// prefix/<basename>-<unix-nanos>. Errors are returned to the caller
// (typically the scheduler job, which logs and moves on) rather than
// panicking.
func (a *Archiver) Upload(ctx context.Context, localPath string, uploadedAt time.Time) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("archive: opening %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join(a.prefix, fmt.Sprintf("%s-%d", path.Base(localPath), uploadedAt.UnixNano()))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("archive: uploading %s to s3://%s/%s: %w", localPath, a.bucket, key, err)
	}
	log.Infof("archive: uploaded %s to s3://%s/%s", localPath, a.bucket, key)
	return nil
}
