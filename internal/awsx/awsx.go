// Package awsx builds the shared AWS SDK v2 configuration and service
// clients used by the storage adapters. A custom endpoint switches the
// clients to a local emulator (LocalStack) without touching adapter code.
package awsx

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Settings holds the credentials and region used for every AWS client.
type Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load resolves an aws.Config with static credentials and the given region.
func Load(ctx context.Context, s Settings) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKeyID,
			s.SecretAccessKey,
			"",
		)))
}

// NewS3Client returns an S3 client. A non-empty endpoint overrides the
// default AWS endpoint and enables path-style addressing, which LocalStack
// and MinIO require.
func NewS3Client(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// NewDynamoDBClient returns a DynamoDB client, optionally pointed at a
// custom endpoint.
func NewDynamoDBClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}
