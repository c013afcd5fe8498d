package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"warrantboard/domain/item"
	"warrantboard/domain/page"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *mockClient) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.BatchWriteItemOutput)
	return out, args.Error(1)
}

func newTestRepository(client *mockClient) *Repository {
	repo := NewRepository(client, "boards", DefaultBreakerConfig(), zap.NewNop())
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }
	return repo
}

func stringAttr(t *testing.T, av map[string]types.AttributeValue, key string) string {
	t.Helper()
	s, ok := av[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s is not a string", key)
	return s.Value
}

func TestStoreAndLoad(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)
	ctx := context.Background()

	rec := &page.Record{
		ActivePageIndex: 0,
		SkillPoints:     2,
		Pages: []page.Snapshot{{
			PageID:            "a",
			DisplayName:       "Page 1",
			UnlockedNodeIDs:   []string{"anchor", "s1"},
			SocketAssignments: []page.SocketAssignment{{NodeID: "s1", ItemID: "w1"}},
		}},
	}

	var stored map[string]types.AttributeValue
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.TableName == "boards"
	})).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*dynamodb.PutItemInput).Item
	}).Return(&dynamodb.PutItemOutput{}, nil).Once()

	require.NoError(t, repo.Store(ctx, "p1", rec))
	assert.Equal(t, "PLAYER#p1", stringAttr(t, stored, "PK"))
	assert.Equal(t, "SAVE", stringAttr(t, stored, "SK"))
	assert.Equal(t, "2023-11-14T22:13:20Z", stringAttr(t, stored, "UpdatedAt"))

	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		pk := in.Key["PK"].(*types.AttributeValueMemberS).Value
		return pk == "PLAYER#p1" && *in.ConsistentRead
	})).Return(&dynamodb.GetItemOutput{Item: stored}, nil).Once()

	got, err := repo.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	client.AssertExpectations(t)
}

func TestLoadMissing(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := repo.Load(context.Background(), "p1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLoadFailureIsDatabaseError(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)
	client.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := repo.Load(context.Background(), "p1")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}

func TestListSortsByCreation(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)

	row := func(id string, created int64) map[string]types.AttributeValue {
		av, err := attributevalue.MarshalMap(inventoryItem{
			PK:         "PLAYER#p1",
			SK:         itemKey(id),
			EntityType: entityItem,
			ItemID:     id,
			Item:       &item.Instance{ID: id, Rarity: item.RarityMagic, RangeDepth: 2},
			CreatedAt:  created,
		})
		require.NoError(t, err)
		return av
	}

	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{row("w2", 20), row("w1", 30)},
		LastEvaluatedKey: map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "next"}},
	}, nil).Once()
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{row("w0", 10)},
	}, nil).Once()

	items, err := repo.List(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"w0", "w2", "w1"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, item.RarityMagic, items[0].Rarity)
	client.AssertExpectations(t)
}

func TestPutUsesIfNotExists(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)

	client.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		sk := in.Key["SK"].(*types.AttributeValueMemberS).Value
		return sk == "ITEM#w1" && assert.Contains(t, *in.UpdateExpression, "if_not_exists")
	})).Return(&dynamodb.UpdateItemOutput{}, nil).Once()

	require.NoError(t, repo.Put(context.Background(), "p1", &item.Instance{ID: "w1"}))
	assert.True(t, pkgerrors.IsValidation(repo.Put(context.Background(), "p1", nil)))
	client.AssertExpectations(t)
}

func TestDeleteBatches(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)

	ids := make([]string, 30)
	for i := range ids {
		ids[i] = fmt.Sprintf("w%d", i)
	}

	var sizes []int
	client.On("BatchWriteItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		in := args.Get(1).(*dynamodb.BatchWriteItemInput)
		sizes = append(sizes, len(in.RequestItems["boards"]))
	}).Return(&dynamodb.BatchWriteItemOutput{}, nil)

	require.NoError(t, repo.Delete(context.Background(), "p1", ids...))
	assert.Equal(t, []int{25, 5}, sizes)

	require.NoError(t, repo.Delete(context.Background(), "p1"))
	client.AssertNumberOfCalls(t, "BatchWriteItem", 2)
}

func TestDeleteRetriesUnprocessed(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)

	leftover := []types.WriteRequest{{DeleteRequest: &types.DeleteRequest{}}}
	client.On("BatchWriteItem", mock.Anything, mock.Anything).
		Return(&dynamodb.BatchWriteItemOutput{
			UnprocessedItems: map[string][]types.WriteRequest{"boards": leftover},
		}, nil)

	err := repo.Delete(context.Background(), "p1", "w1")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	client.AssertNumberOfCalls(t, "BatchWriteItem", maxBatchRetries)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)
	client.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("unreachable"))

	for i := 0; i < 5; i++ {
		_, err := repo.Load(context.Background(), "p1")
		require.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	}

	_, err := repo.Load(context.Background(), "p1")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	client.AssertNumberOfCalls(t, "GetItem", 5)
}

func TestAPIErrorsMapToAppErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, err error)
	}{
		{
			name: "throttled",
			err:  &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"},
			check: func(t *testing.T, err error) {
				assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
				assert.True(t, pkgerrors.HasCode(err, CodeThrottled))
			},
		},
		{
			name: "throughput exceeded",
			err:  &types.ProvisionedThroughputExceededException{Message: aws.String("capacity")},
			check: func(t *testing.T, err error) {
				assert.True(t, pkgerrors.HasCode(err, CodeThrottled))
			},
		},
		{
			name: "conditional check",
			err:  &types.ConditionalCheckFailedException{Message: aws.String("exists")},
			check: func(t *testing.T, err error) {
				assert.True(t, pkgerrors.IsConflict(err))
			},
		},
		{
			name: "other service error",
			err:  &smithy.GenericAPIError{Code: "ValidationException", Message: "bad key"},
			check: func(t *testing.T, err error) {
				assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			repo := newTestRepository(client)
			client.On("PutItem", mock.Anything, mock.Anything).Return(nil, tt.err)

			err := repo.Store(context.Background(), "p1", &page.Record{})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestConditionalFailuresKeepBreakerClosed(t *testing.T) {
	client := &mockClient{}
	repo := newTestRepository(client)
	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")})

	for i := 0; i < 8; i++ {
		err := repo.Store(context.Background(), "p1", &page.Record{})
		require.True(t, pkgerrors.IsConflict(err))
	}
	client.AssertNumberOfCalls(t, "PutItem", 8)
}
