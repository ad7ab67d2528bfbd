package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gofiber/fiber/v2/log"
)

// ErrObjectMissing reports that a referenced stored object no longer exists.
// Callers use it to distinguish "asset gone" from authorization failures.
var ErrObjectMissing = errors.New("storage: object does not exist")

// DownloadURLTTL bounds how long a minted retrieval URL stays valid.
const DownloadURLTTL = 15 * time.Minute

// providerTimeout bounds every storage-provider call so entitlement checks
// surface a retryable error instead of hanging.
const providerTimeout = 10 * time.Second

// URLSigner mints time-limited retrieval URLs for stored objects. Satisfied by
// *Client; the entitlement gate depends on this interface only.
type URLSigner interface {
	PresignDownloadURL(ctx context.Context, objectKey string) (string, error)
}

// Client wraps the S3 client for content storage
type Client struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	config   *Config
}

// NewClient creates a new content storage client
func NewClient(cfg *Config) (*Client, error) {
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		presign:  s3.NewPresignClient(s3Client),
		config:   cfg,
	}

	log.Infof("[Storage] Initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// Upload stores product content under the given object key.
func (c *Client) Upload(ctx context.Context, objectKey string, body io.Reader, contentType string, size int64) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[Storage] Uploaded s3://%s/%s (%d bytes)", c.config.BucketName, objectKey, size)
	return nil
}

// ObjectExists checks whether the referenced object is still stored.
func (c *Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat s3://%s/%s: %w", c.config.BucketName, objectKey, err)
	}
	return true, nil
}

// PresignDownloadURL mints a time-limited retrieval URL for the object, or
// ErrObjectMissing when the object is gone.
func (c *Client) PresignDownloadURL(ctx context.Context, objectKey string) (string, error) {
	exists, err := c.ObjectExists(ctx, objectKey)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrObjectMissing
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(DownloadURLTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign s3://%s/%s: %w", c.config.BucketName, objectKey, err)
	}
	return req.URL, nil
}

// Delete removes a stored object; missing objects are not an error.
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete s3://%s/%s: %w", c.config.BucketName, objectKey, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}
	return false
}
