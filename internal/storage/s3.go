package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/remixer1943/Ai/internal/store"
)

// S3Medium stores the encoded vector store as one object in an S3-compatible bucket.
type S3Medium struct {
	client      *minio.Client
	bucket      string
	key         string
	compression store.Compression
}

// NewS3Medium creates a client for opts.Endpoint. No request is made until Save or Load.
func NewS3Medium(bucket, key string, opts S3Options, c store.Compression) (*S3Medium, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required for s3://%s/%s", bucket, key)
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3Medium{client: client, bucket: bucket, key: key, compression: c}, nil
}

// Save uploads vs as a single object. S3 object writes are atomic.
func (m *S3Medium) Save(ctx context.Context, vs *store.VectorStore) error {
	var buf bytes.Buffer
	if err := store.Encode(&buf, vs, m.compression); err != nil {
		return err
	}
	_, err := m.client.PutObject(ctx, m.bucket, m.key, bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", m.Location(), err)
	}
	return nil
}

// Load downloads and decodes the object.
func (m *S3Medium) Load(ctx context.Context) (*store.VectorStore, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, m.key, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("vector store %s not found", m.Location())
		}
		return nil, fmt.Errorf("failed to stat %s: %w", m.Location(), err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, m.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", m.Location(), err)
	}
	defer obj.Close()
	return store.Decode(obj)
}

func (m *S3Medium) Location() string { return "s3://" + m.bucket + "/" + m.key }

func (m *S3Medium) Close() error { return nil }
