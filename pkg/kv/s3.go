package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [S3].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 implements Store backed by Amazon S3 or any S3-compatible object store
// (MinIO, R2, etc.). Each key is one object; key segments are joined with
// '/' unless Options says otherwise.
//
// The caller is responsible for configuring the [s3.Client] with appropriate
// credentials, region, and endpoint. Retries are left to the client.
type S3 struct {
	client S3Client
	bucket string
	prefix string
	opts   *Options
}

// S3Options configures the S3 store.
type S3Options struct {
	// Options is the common kv options. The separator defaults to '/'.
	Options *Options

	// Bucket is the target bucket. Required.
	Bucket string

	// Prefix is prepended to all object keys; "" for no prefix.
	Prefix string
}

// NewS3 creates an S3-backed Store.
//
// Any type satisfying [S3Client] is accepted; typically an [s3.Client].
func NewS3(client S3Client, sopts S3Options) (*S3, error) {
	if client == nil {
		return nil, errors.New("kv: S3 client is required")
	}
	if sopts.Bucket == "" {
		return nil, errors.New("kv: S3Options.Bucket is required")
	}
	opts := sopts.Options
	if opts == nil {
		opts = &Options{Separator: '/'}
	}
	return &S3{client: client, bucket: sopts.Bucket, prefix: sopts.Prefix, opts: opts}, nil
}

// objectKey builds the full S3 object key for the given key.
func (s *S3) objectKey(key Key) (string, error) {
	k, err := s.opts.encode(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return string(k), nil
	}
	return s.prefix + "/" + string(k), nil
}

func (s *S3) Get(ctx context.Context, key Key) ([]byte, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kv: s3 get %s: %w", k, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("kv: s3 read %s: %w", k, err)
	}
	return data, nil
}

func (s *S3) Set(ctx context.Context, key Key, value []byte) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(k),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("kv: s3 put %s: %w", k, err)
	}
	return nil
}

// Delete removes the object. S3 DeleteObject succeeds for missing keys, so
// presence is checked first with HeadObject to report ErrNotFound.
func (s *S3) Delete(ctx context.Context, key Key) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("kv: s3 head %s: %w", k, err)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return fmt.Errorf("kv: s3 delete %s: %w", k, err)
	}
	return nil
}

func (s *S3) Close() error {
	return nil
}

// isS3NotFound reports whether err indicates the S3 object does not exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// Compile-time interface checks.
var (
	_ Store = (*S3)(nil)
	_ Store = (*Badger)(nil)
	_ Store = (*Memory)(nil)
)
