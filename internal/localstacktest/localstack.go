// Package localstacktest starts an ephemeral LocalStack container and
// provisions the buckets and tables the storage adapters expect. It is
// consumed only by integration tests.
package localstacktest

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go/modules/localstack"

	"github.com/dmitrijs2005/audioapi/internal/awsx"
	"github.com/dmitrijs2005/audioapi/internal/dynamostore"
	"github.com/dmitrijs2005/audioapi/internal/s3store"
)

const (
	image            = "localstack/localstack:2.3.2"
	region           = "us-east-1"
	provisionTimeout = 2 * time.Minute
)

// Instance is a running LocalStack container with service clients already
// pointed at it. The expected buckets and tables are created before Start
// returns.
type Instance struct {
	container *localstack.LocalStackContainer

	Endpoint string
	S3       *s3.Client
	DynamoDB *dynamodb.Client
}

// Start runs a LocalStack container and provisions every bucket and table
// registered in the adapter lookup tables.
func Start(ctx context.Context) (*Instance, error) {
	container, err := localstack.Run(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("starting localstack: %w", err)
	}

	inst := &Instance{container: container}

	host, err := container.Host(ctx)
	if err != nil {
		inst.Terminate(ctx)
		return nil, fmt.Errorf("resolving localstack host: %w", err)
	}
	port, err := container.MappedPort(ctx, "4566/tcp")
	if err != nil {
		inst.Terminate(ctx)
		return nil, fmt.Errorf("resolving localstack port: %w", err)
	}
	inst.Endpoint = fmt.Sprintf("http://%s:%s", host, port.Port())

	cfg, err := awsx.Load(ctx, awsx.Settings{
		Region:          region,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	if err != nil {
		inst.Terminate(ctx)
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	inst.S3 = awsx.NewS3Client(cfg, inst.Endpoint)
	inst.DynamoDB = awsx.NewDynamoDBClient(cfg, inst.Endpoint)

	provisionCtx, cancel := context.WithTimeout(ctx, provisionTimeout)
	defer cancel()
	if err := inst.provision(provisionCtx); err != nil {
		inst.Terminate(ctx)
		return nil, err
	}

	return inst, nil
}

// provision creates the buckets and tables from the same lookup tables the
// production adapters consult.
func (i *Instance) provision(ctx context.Context) error {
	for resource, bucket := range s3store.Buckets {
		_, err := i.S3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			return fmt.Errorf("creating bucket for %s: %w", resource, err)
		}
	}

	for model, spec := range dynamostore.Tables {
		_, err := i.DynamoDB.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(spec.TableName),
			AttributeDefinitions: []dynamodbtypes.AttributeDefinition{
				{AttributeName: aws.String(spec.KeyAttribute), AttributeType: dynamodbtypes.ScalarAttributeTypeS},
			},
			KeySchema: []dynamodbtypes.KeySchemaElement{
				{AttributeName: aws.String(spec.KeyAttribute), KeyType: dynamodbtypes.KeyTypeHash},
			},
			ProvisionedThroughput: &dynamodbtypes.ProvisionedThroughput{
				ReadCapacityUnits:  aws.Int64(spec.ReadCapacityUnits),
				WriteCapacityUnits: aws.Int64(spec.WriteCapacityUnits),
			},
		})
		if err != nil {
			return fmt.Errorf("creating table for %s: %w", model, err)
		}

		waiter := dynamodb.NewTableExistsWaiter(i.DynamoDB)
		err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(spec.TableName)}, provisionTimeout)
		if err != nil {
			return fmt.Errorf("waiting for table %s: %w", spec.TableName, err)
		}
	}

	return nil
}

// Terminate stops and removes the container.
func (i *Instance) Terminate(ctx context.Context) error {
	return i.container.Terminate(ctx)
}
