package session

import (
	"context"

	"warrantboard/domain/events"
	"warrantboard/domain/item"
	"warrantboard/domain/page"

	"github.com/stretchr/testify/mock"
)

type mockSaves struct {
	mock.Mock
}

func (m *mockSaves) Load(ctx context.Context, playerID string) (*page.Record, error) {
	args := m.Called(ctx, playerID)
	rec, _ := args.Get(0).(*page.Record)
	return rec, args.Error(1)
}

func (m *mockSaves) Store(ctx context.Context, playerID string, record *page.Record) error {
	return m.Called(ctx, playerID, record).Error(0)
}

type mockInventory struct {
	mock.Mock
}

func (m *mockInventory) List(ctx context.Context, playerID string) ([]*item.Instance, error) {
	args := m.Called(ctx, playerID)
	items, _ := args.Get(0).([]*item.Instance)
	return items, args.Error(1)
}

func (m *mockInventory) Put(ctx context.Context, playerID string, inst *item.Instance) error {
	return m.Called(ctx, playerID, inst).Error(0)
}

func (m *mockInventory) Delete(ctx context.Context, playerID string, itemIDs ...string) error {
	return m.Called(ctx, playerID, itemIDs).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}
