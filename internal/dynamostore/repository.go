// Package dynamostore implements the key-value metadata store adapter on
// DynamoDB. One JSON-like record is stored per program, keyed by a
// generated identifier; update and delete are conditional on the record
// already existing. Every SDK failure is translated into one of the
// sentinel errors in internal/common.
package dynamostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/audioapi/internal/common"
	"github.com/dmitrijs2005/audioapi/internal/logging"
	"github.com/dmitrijs2005/audioapi/internal/server/programs"
)

// batchWriteMax is the DynamoDB limit on requests per BatchWriteItem call.
const batchWriteMax = 25

// Client is the subset of the DynamoDB SDK used by this adapter.
// *dynamodb.Client satisfies it; tests substitute fakes.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Repository stores program records in the table registered for one model.
// It satisfies programs.Repository.
type Repository struct {
	client Client
	table  TableSpec
	log    logging.Logger
}

// NewRepository binds a repository to the table registered for model. An
// unregistered model is a programming error and fails immediately.
func NewRepository(client Client, model Model, log logging.Logger) (*Repository, error) {
	table, ok := Tables[model]
	if !ok {
		return nil, fmt.Errorf("%w: no table for model %s", common.ErrDBClient, model)
	}
	return &Repository{client: client, table: table, log: log}, nil
}

func (r *Repository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		r.table.KeyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

// Get returns the record with the given id, or common.ErrItemNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*programs.Program, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table.TableName),
		Key:       r.key(id),
	})
	if err != nil {
		r.log.Error(ctx, "failed to get item", "table", r.table.TableName, "id", id, "error", err)
		return nil, wrapErr(err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
	}

	var program programs.Program
	if err := attributevalue.UnmarshalMap(out.Item, &program); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling item: %v", common.ErrDBClient, err)
	}
	return &program, nil
}

// GetAll scans the whole table. An empty table yields an empty slice.
func (r *Repository) GetAll(ctx context.Context) ([]*programs.Program, error) {
	result := []*programs.Program{}
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.table.TableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			r.log.Error(ctx, "failed to scan table", "table", r.table.TableName, "error", err)
			return nil, wrapErr(err)
		}

		var page []*programs.Program
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("%w: unmarshaling items: %v", common.ErrDBClient, err)
		}
		result = append(result, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return result, nil
}

// Put writes a new record under a freshly generated identifier and returns
// the stored record including that identifier.
func (r *Repository) Put(ctx context.Context, create *programs.ProgramCreate) (*programs.Program, error) {
	program := &programs.Program{
		ID:              uuid.NewString(),
		Title:           create.Title,
		Description:     create.Description,
		AirDate:         create.AirDate,
		SpotifyPlaylist: create.SpotifyPlaylist,
		RadioProgram:    create.RadioProgram,
	}

	item, err := attributevalue.MarshalMap(program)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling item: %v", common.ErrDBClient, err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table.TableName),
		Item:      item,
	}); err != nil {
		r.log.Error(ctx, "failed to put item", "table", r.table.TableName, "id", program.ID, "error", err)
		return nil, wrapErr(err)
	}

	r.log.Info(ctx, "item stored", "table", r.table.TableName, "id", program.ID)
	return program, nil
}

// Update applies a sparse update, conditional on the record already
// existing, and returns the record post-update. An absent record yields
// common.ErrItemNotFound and is never created.
func (r *Repository) Update(ctx context.Context, id string, update *programs.ProgramUpdate) (*programs.Program, error) {
	expr, err := buildUpdateExpression(update)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDBClient, err)
	}
	// Nothing to set: the update degenerates to a conditional read.
	if len(expr.values) == 0 {
		return r.Get(ctx, id)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table.TableName),
		Key:                       r.key(id),
		ConditionExpression:       aws.String(fmt.Sprintf("attribute_exists(%s)", r.table.KeyAttribute)),
		UpdateExpression:          aws.String(expr.expression),
		ExpressionAttributeNames:  expr.names,
		ExpressionAttributeValues: expr.values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
		}
		r.log.Error(ctx, "failed to update item", "table", r.table.TableName, "id", id, "error", err)
		return nil, wrapErr(err)
	}

	var program programs.Program
	if err := attributevalue.UnmarshalMap(out.Attributes, &program); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling item: %v", common.ErrDBClient, err)
	}

	r.log.Info(ctx, "item updated", "table", r.table.TableName, "id", id)
	return &program, nil
}

// Delete removes the record, conditional on it existing. An absent record
// yields common.ErrItemNotFound instead of a silent no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table.TableName),
		Key:                 r.key(id),
		ConditionExpression: aws.String(fmt.Sprintf("attribute_exists(%s)", r.table.KeyAttribute)),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
		}
		r.log.Error(ctx, "failed to delete item", "table", r.table.TableName, "id", id, "error", err)
		return wrapErr(err)
	}

	r.log.Info(ctx, "item deleted", "table", r.table.TableName, "id", id)
	return nil
}

// DeleteAll removes every record in the table via scan plus batched
// deletes. Test fixtures use it to reset state between cases.
func (r *Repository) DeleteAll(ctx context.Context) error {
	var startKey map[string]types.AttributeValue
	var requests []types.WriteRequest
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(r.table.TableName),
			ProjectionExpression:     aws.String("#k"),
			ExpressionAttributeNames: map[string]string{"#k": r.table.KeyAttribute},
			ExclusiveStartKey:        startKey,
		})
		if err != nil {
			return wrapErr(err)
		}
		for _, item := range out.Items {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: item},
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	for start := 0; start < len(requests); start += batchWriteMax {
		end := min(start+batchWriteMax, len(requests))
		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.table.TableName: requests[start:end],
			},
		})
		if err != nil {
			return wrapErr(err)
		}
	}
	return nil
}

// wrapErr translates an SDK error into the adapter's error taxonomy: a
// service-reported failure becomes common.ErrDBStatus, anything else
// (network, auth, context cancellation) becomes common.ErrDBClient.
func wrapErr(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s", common.ErrDBStatus, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%w: %v", common.ErrDBClient, err)
}
