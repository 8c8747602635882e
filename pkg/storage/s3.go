package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Provider represents the S3-compatible storage provider
type S3Provider string

const (
	S3ProviderAWS    S3Provider = "aws"
	S3ProviderWasabi S3Provider = "wasabi"
	// S3ProviderCustom is any S3-compatible endpoint (MinIO, R2, ...)
	S3ProviderCustom S3Provider = "custom"
)

// S3Config holds configuration for S3-compatible storage
type S3Config struct {
	Provider        S3Provider
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	// Endpoint overrides the provider default, e.g. "s3.ap-southeast-1.wasabisys.com"
	Endpoint string
}

// WasabiEndpoints maps regions to Wasabi endpoints
var WasabiEndpoints = map[string]string{
	"us-east-1":      "s3.us-east-1.wasabisys.com",
	"us-east-2":      "s3.us-east-2.wasabisys.com",
	"us-west-1":      "s3.us-west-1.wasabisys.com",
	"eu-central-1":   "s3.eu-central-1.wasabisys.com",
	"eu-west-1":      "s3.eu-west-1.wasabisys.com",
	"eu-west-2":      "s3.eu-west-2.wasabisys.com",
	"ap-northeast-1": "s3.ap-northeast-1.wasabisys.com",
	"ap-northeast-2": "s3.ap-northeast-2.wasabisys.com",
	"ap-southeast-1": "s3.ap-southeast-1.wasabisys.com",
	"ap-southeast-2": "s3.ap-southeast-2.wasabisys.com",
}

// Enabled reports whether uploads should be stored at all
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// endpoint resolves the base endpoint; "" means the AWS default
func (c S3Config) endpoint() (string, error) {
	switch c.Provider {
	case S3ProviderWasabi:
		if c.Endpoint != "" {
			return c.Endpoint, nil
		}
		if endpoint, ok := WasabiEndpoints[c.Region]; ok {
			return endpoint, nil
		}
		return "", fmt.Errorf("unknown Wasabi region: %s", c.Region)
	case S3ProviderCustom:
		if c.Endpoint == "" {
			return "", fmt.Errorf("custom S3 provider requires an endpoint")
		}
		return c.Endpoint, nil
	default:
		return c.Endpoint, nil
	}
}

// NewS3Client creates an S3 client with the given config.
// Supports AWS S3, Wasabi and custom S3-compatible endpoints.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	endpoint, err := cfg.endpoint()
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
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

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		// Non-AWS providers need an explicit endpoint and path-style addressing
		o.BaseEndpoint = aws.String(withScheme(endpoint))
		o.UsePathStyle = true
	}), nil
}

// CheckBucket verifies the bucket is reachable by listing at most one key
func CheckBucket(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("failed to access bucket %s: %w", bucket, err)
	}
	return nil
}

func withScheme(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}
