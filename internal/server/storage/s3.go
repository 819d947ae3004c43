// Package storage backs file bytes with an S3-compatible object store.
// Clients never stream through the service: uploads and downloads go through
// short-lived presigned URLs, the service only brokers them.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignValidity = 15 * time.Minute

// seams for testing the AWS SDK calls
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
)

// S3Store brokers presigned access to one bucket.
type S3Store struct {
	bucket       string
	region       string
	baseEndpoint string
	accessKey    string
	secretKey    string
}

func NewS3Store(bucket, region, baseEndpoint, accessKey, secretKey string) *S3Store {
	return &S3Store{
		bucket:       bucket,
		region:       region,
		baseEndpoint: baseEndpoint,
		accessKey:    accessKey,
		secretKey:    secretKey,
	}
}

// RandomKey returns a date-bucketed object key for a new upload.
func RandomKey() string {
	d := time.Now()
	return fmt.Sprintf("folders/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *S3Store) client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.accessKey,
			s.secretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.baseEndpoint)
	}), nil
}

// PresignPut returns a URL the caller can PUT the object bytes to.
func (s *S3Store) PresignPut(ctx context.Context, key string) (string, error) {
	client, err := s.client()
	if err != nil {
		return "", err
	}

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// PresignGet returns a URL the caller can GET the object bytes from.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	client, err := s.client()
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// Delete removes the object. Deleting an absent key is not an error in S3,
// which matches the idempotency the callers need.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	client, err := s.client()
	if err != nil {
		return err
	}

	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	return err
}
