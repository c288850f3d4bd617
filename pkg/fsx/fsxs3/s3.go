package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client the file system uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3FileSystem stores files as objects under prefix in bucket
type S3FileSystem struct {
	client S3API
	bucket string
	prefix string
}

var _ fsx.FileSystem = (*S3FileSystem)(nil)

func NewS3FileSystem(client S3API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (f *S3FileSystem) key(name string) string {
	return fsx.Join(f.prefix, name)
}

func (f *S3FileSystem) Join(elem ...string) string {
	return fsx.Join(elem...)
}

func (f *S3FileSystem) WriteFile(ctx context.Context, name string, data []byte) error {
	return f.put(ctx, name, bytes.NewReader(data), aws.Int64(int64(len(data))))
}

func (f *S3FileSystem) WriteFileStream(ctx context.Context, name string, r io.Reader) error {
	return f.put(ctx, name, r, nil)
}

func (f *S3FileSystem) put(ctx context.Context, name string, body io.Reader, size *int64) error {
	_, err := f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(f.bucket),
		Key:           aws.String(f.key(name)),
		Body:          body,
		ContentLength: size,
		ContentType:   aws.String(fsx.ContentType(name)),
	})
	if err != nil {
		return fsx.ErrStorage(err).WithDetail("path", name)
	}
	return nil
}

func (f *S3FileSystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	rc, err := f.ReadFileStream(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fsx.ErrStorage(err).WithDetail("path", name)
	}
	return data, nil
}

func (f *S3FileSystem) ReadFileStream(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(name)),
	})
	if err != nil {
		return nil, f.mapErr(err, name)
	}
	return out.Body, nil
}

func (f *S3FileSystem) DeleteFile(ctx context.Context, name string) error {
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(name)),
	})
	if err != nil {
		return f.mapErr(err, name)
	}
	return nil
}

func (f *S3FileSystem) Stat(ctx context.Context, name string) (*fsx.FileInfo, error) {
	out, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(name)),
	})
	if err != nil {
		return nil, f.mapErr(err, name)
	}

	info := &fsx.FileInfo{
		Path:        name,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.ModTime = *out.LastModified
	}
	return info, nil
}

func (f *S3FileSystem) Exists(ctx context.Context, name string) (bool, error) {
	_, err := f.Stat(ctx, name)
	if err == nil {
		return true, nil
	}
	if errx.IsCode(err, fsx.CodeFileNotFound) {
		return false, nil
	}
	return false, err
}

func (f *S3FileSystem) mapErr(err error, name string) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return fsx.ErrFileNotFound().WithDetail("path", name)
	}
	return fsx.ErrStorage(err).WithDetail("path", name)
}
