package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type BucketOptions struct {
	Endpoint  string
	Bucket    string
	Key       string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

type bucketBlob struct {
	cli    *minio.Client
	bucket string
	key    string
}

func (b bucketBlob) read(ctx context.Context) ([]byte, error) {
	obj, err := b.cli.GetObject(ctx, b.bucket, b.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	raw, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("s3 get %s/%s: %w", b.bucket, b.key, err)
	}
	return raw, nil
}

func (b bucketBlob) write(ctx context.Context, data []byte) error {
	_, err := b.cli.PutObject(ctx, b.bucket, b.key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", b.bucket, b.key, err)
	}
	return nil
}

// NewBucketStore guarda el documento como un objeto en un bucket S3-compatible.
func NewBucketStore(o BucketOptions) (GuildConfigStore, error) {
	cli, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
		Region: o.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	key := o.Key
	if key == "" {
		key = "config.json"
	}
	return &documentStore{b: bucketBlob{cli: cli, bucket: o.Bucket, key: key}}, nil
}
