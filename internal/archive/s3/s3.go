// Package s3 archives incident context documents to an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver writes documents to a fixed bucket.
type Archiver struct {
	client *awss3.Client
	bucket string
}

// New creates an Archiver targeting bucket.
func New(cfg aws.Config, bucket string) *Archiver {
	return &Archiver{
		client: awss3.NewFromConfig(cfg),
		bucket: bucket,
	}
}

// Put stores body under key with a JSON content type.
func (a *Archiver) Put(ctx context.Context, key string, body []byte) error {
	_, err := a.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}
