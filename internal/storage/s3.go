package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"video-platform/internal/apperr"
	"video-platform/internal/mediatypes"
)

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store keeps objects in a single bucket under their keys.
type S3Store struct {
	client s3API
	bucket string
}

// NewS3Store creates an S3-backed store using the default AWS configuration chain.
func NewS3Store(ctx context.Context, bucket string) (*S3Store, error) {
	if bucket == "" {
		return nil, apperr.Validation("S3 bucket name is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return newS3Store(s3.NewFromConfig(cfg), bucket), nil
}

func newS3Store(client s3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Bucket returns the bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// Save uploads r to key. The body is read into memory first so the request can
// be signed; only thumbnails go through this store.
func (s *S3Store) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return 0, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, apperr.IO("read upload body", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(cleaned),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mediatypes.GetMimeType(path.Ext(cleaned))),
	})
	if err != nil {
		return 0, apperr.IO("upload s3://"+s.bucket+"/"+cleaned, err)
	}

	log.Debug("Uploaded s3://%s/%s (%d bytes)", s.bucket, cleaned, len(data))
	return int64(len(data)), nil
}

// Delete removes key. S3 does not report missing keys on delete.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		return apperr.IO("delete s3://"+s.bucket+"/"+cleaned, err)
	}
	return nil
}

// Exists reports whether key is present in the bucket.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, apperr.IO("head s3://"+s.bucket+"/"+cleaned, err)
}
