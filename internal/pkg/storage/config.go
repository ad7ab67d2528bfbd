package storage

import (
	"errors"
	"fmt"

	"github.com/JulianWeber/FanGate/internal/pkg/env"
)

// Config holds content storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
}

// LoadConfig loads storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}

// ContentObjectKey generates a standardized object key for product content.
// Format: content/<artistID>/<productUUID>/<filename>
func ContentObjectKey(artistID uint, productUUID, filename string) string {
	return fmt.Sprintf("content/%d/%s/%s", artistID, productUUID, filename)
}

// PreviewObjectKey generates the object key for a product's public preview.
// Format: preview/<artistID>/<productUUID>/<filename>
func PreviewObjectKey(artistID uint, productUUID, filename string) string {
	return fmt.Sprintf("preview/%d/%s/%s", artistID, productUUID, filename)
}
