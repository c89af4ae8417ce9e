package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// S3 stores images in a bucket instead of the local filesystem. Image
// URLs still use the stored key, the router proxies reads
type S3 struct {
	C      *s3.Client
	Bucket *string

	uploader *manager.Uploader
}

func NewS3() (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("aws.access_key_id"),
			viper.GetString("aws.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("aws.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = viper.GetString("aws.region")
	})

	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3{
		C:      client,
		Bucket: bucket,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 5 << 20
		}),
	}, nil
}

func (s *S3) Save(ctx context.Context, r io.Reader, originalName string) (string, error) {
	key := storedName(originalName)

	// The upload manager streams the body and falls back to a multipart
	// upload on its own once the part size is exceeded
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to S3, %w", err)
	}

	return key, nil
}

func (s *S3) Delete(ctx context.Context, path string) {
	if path == "" {
		return
	}

	_, err := s.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(path),
	})
	if err != nil {
		zap.L().Error("Failed to delete image from S3", zap.Error(err), zap.String("key", path))
	}
}
