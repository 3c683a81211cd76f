package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/relabs-tech/feishu-proxy/core/logger"
)

// S3Configuration contains the bucket and credentials of the S3 driver
type S3Configuration struct {
	AWSBucketName string
	AWSRegion     string
	// AccessID and AccessKey are optional, the default credential chain is used without them
	AccessID  string
	AccessKey string
	KeyPrefix string
}

// S3 is the implementation of the Driver for AWS S3
type S3 struct {
	uploader    *manager.Uploader
	bucket      string
	baseKeyName string
}

// NewS3 returns a new S3
func NewS3(ctx context.Context, c S3Configuration) (*S3, error) {
	if c.AWSBucketName == "" {
		return nil, fmt.Errorf("AWSBucketName must not be empty")
	}

	options := []func(*config.LoadOptions) error{config.WithRegion(c.AWSRegion)}
	if c.AccessID != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessID, c.AccessKey, "")))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}
	logger.Default().Debugln("storage S3 enabled for bucket", c.AWSBucketName)
	return &S3{
		uploader:    manager.NewUploader(s3.NewFromConfig(awsConfig)),
		bucket:      c.AWSBucketName,
		baseKeyName: c.KeyPrefix,
	}, nil
}

// Upload puts the object into the bucket and returns its location.
func (s *S3) Upload(ctx context.Context, object Object) (string, error) {
	cleaned, err := CleanKey(object.Path)
	if err != nil {
		return "", err
	}
	key := s.baseKeyName + cleaned
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(object.Content),
	}
	if object.ContentType != "" {
		input.ContentType = aws.String(object.ContentType)
	}
	out, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload file, %v", err)
	}
	logger.FromContext(ctx).Infoln("uploaded", key)
	return out.Location, nil
}
