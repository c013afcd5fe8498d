// Package dynamodb stores player records and inventories in a single
// DynamoDB table keyed by player.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"warrantboard/domain/item"
	"warrantboard/domain/page"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	entitySave = "SAVE"
	entityItem = "ITEM"

	// batchWriteLimit is DynamoDB's per-request cap for BatchWriteItem.
	batchWriteLimit = 25
	maxBatchRetries = 3

	// CodeThrottled marks requests DynamoDB refused for capacity.
	CodeThrottled = "THROTTLED"
)

// Client is the subset of the DynamoDB API the repository uses.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// saveItem represents the DynamoDB item structure for a player record
type saveItem struct {
	PK         string      `dynamodbav:"PK"`
	SK         string      `dynamodbav:"SK"`
	EntityType string      `dynamodbav:"EntityType"`
	PlayerID   string      `dynamodbav:"PlayerID"`
	Record     page.Record `dynamodbav:"Record"`
	UpdatedAt  string      `dynamodbav:"UpdatedAt"`
}

// inventoryItem represents one owned item
type inventoryItem struct {
	PK         string         `dynamodbav:"PK"`
	SK         string         `dynamodbav:"SK"`
	EntityType string         `dynamodbav:"EntityType"`
	ItemID     string         `dynamodbav:"ItemID"`
	Item       *item.Instance `dynamodbav:"Item"`
	CreatedAt  int64          `dynamodbav:"CreatedAt"`
}

func playerKey(playerID string) string { return fmt.Sprintf("PLAYER#%s", playerID) }

func itemKey(itemID string) string { return fmt.Sprintf("ITEM#%s", itemID) }

// BreakerConfig tunes the circuit breaker in front of the table.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips at 80% failures over at least 5 requests.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Repository implements the save and inventory ports on one table.
type Repository struct {
	client    Client
	tableName string
	breaker   *gobreaker.CircuitBreaker
	now       func() time.Time
	logger    *zap.Logger
}

// NewRepository creates a repository for tableName.
func NewRepository(client Client, tableName string, cfg BreakerConfig, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dynamodb:" + tableName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		// A failed condition is an answer from a healthy table.
		IsSuccessful: func(err error) bool {
			return err == nil || apiErrorCode(err) == "ConditionalCheckFailedException"
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Repository{
		client:    client,
		tableName: tableName,
		breaker:   breaker,
		now:       time.Now,
		logger:    logger,
	}
}

// call runs fn through the breaker and maps failures to AppErrors.
func (r *Repository) call(op string, fn func() error) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	}

	switch apiErrorCode(err) {
	case "ConditionalCheckFailedException":
		return pkgerrors.NewConflictError(fmt.Sprintf("%s: conditional check failed", op)).WithCause(err)
	case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
		r.logger.Warn("DynamoDB request throttled", zap.String("operation", op), zap.Error(err))
		return pkgerrors.NewUnavailableError("dynamodb").WithCode(CodeThrottled).WithCause(err)
	default:
		r.logger.Error("DynamoDB operation failed", zap.String("operation", op), zap.Error(err))
		return pkgerrors.NewDatabaseError(op, err)
	}
}

// apiErrorCode returns the service error code carried by err, if any.
func apiErrorCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}

// Load returns the player's record.
func (r *Repository) Load(ctx context.Context, playerID string) (*page.Record, error) {
	var out *dynamodb.GetItemOutput
	err := r.call("load", func() error {
		var err error
		out, err = r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: playerKey(playerID)},
				"SK": &types.AttributeValueMemberS{Value: entitySave},
			},
			ConsistentRead: aws.Bool(true),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError("player record")
	}

	var row saveItem
	if err := attributevalue.UnmarshalMap(out.Item, &row); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal record", err)
	}
	return &row.Record, nil
}

// Store replaces the player's record.
func (r *Repository) Store(ctx context.Context, playerID string, record *page.Record) error {
	if record == nil {
		return pkgerrors.NewValidationError("record is required")
	}
	av, err := attributevalue.MarshalMap(saveItem{
		PK:         playerKey(playerID),
		SK:         entitySave,
		EntityType: entitySave,
		PlayerID:   playerID,
		Record:     *record,
		UpdatedAt:  r.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal record", err)
	}

	return r.call("store", func() error {
		_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      av,
		})
		return err
	})
}

// List returns the player's items in the order they were first stored.
func (r *Repository) List(ctx context.Context, playerID string) ([]*item.Instance, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(playerKey(playerID))).
		And(expression.Key("SK").BeginsWith(entityItem + "#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var rows []inventoryItem
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		var result *dynamodb.QueryOutput
		if err := r.call("list inventory", func() error {
			var err error
			result, err = paginator.NextPage(ctx)
			return err
		}); err != nil {
			return nil, err
		}
		for _, raw := range result.Items {
			var row inventoryItem
			if err := attributevalue.UnmarshalMap(raw, &row); err != nil {
				r.logger.Warn("Failed to parse inventory item", zap.Error(err))
				continue
			}
			if row.Item != nil {
				rows = append(rows, row)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt < rows[j].CreatedAt })
	out := make([]*item.Instance, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Item)
	}
	return out, nil
}

// Put creates or replaces one item. CreatedAt is only set on first write.
func (r *Repository) Put(ctx context.Context, playerID string, inst *item.Instance) error {
	if inst == nil || inst.ID == "" {
		return pkgerrors.NewValidationError("item id is required")
	}

	update := expression.Set(expression.Name("Item"), expression.Value(inst)).
		Set(expression.Name("EntityType"), expression.Value(entityItem)).
		Set(expression.Name("ItemID"), expression.Value(inst.ID)).
		Set(expression.Name("CreatedAt"),
			expression.IfNotExists(expression.Name("CreatedAt"), expression.Value(r.now().UnixNano())))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("build expression", err)
	}

	return r.call("put item", func() error {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: playerKey(playerID)},
				"SK": &types.AttributeValueMemberS{Value: itemKey(inst.ID)},
			},
			UpdateExpression:          expr.Update(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		return err
	})
}

// Delete removes items in batches; unknown ids are ignored.
func (r *Repository) Delete(ctx context.Context, playerID string, itemIDs ...string) error {
	for start := 0; start < len(itemIDs); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(itemIDs) {
			end = len(itemIDs)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range itemIDs[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: playerKey(playerID)},
						"SK": &types.AttributeValueMemberS{Value: itemKey(id)},
					},
				},
			})
		}

		if err := r.batchWrite(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.tableName: requests}
	for attempt := 0; attempt < maxBatchRetries && len(pending[r.tableName]) > 0; attempt++ {
		var out *dynamodb.BatchWriteItemOutput
		if err := r.call("delete items", func() error {
			var err error
			out, err = r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			return err
		}); err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		pending = out.UnprocessedItems
	}
	if left := len(pending[r.tableName]); left > 0 {
		return pkgerrors.NewDatabaseError("delete items", fmt.Errorf("%d requests left unprocessed", left))
	}
	return nil
}
