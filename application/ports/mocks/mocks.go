// Package mocks holds testify mocks for the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/events"
)

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *entities.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) Update(ctx context.Context, item *entities.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, ownerID string, id valueobjects.ItemID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockItemRepository) GetByOwner(ctx context.Context, ownerID string, id valueobjects.ItemID) (*entities.Item, error) {
	args := m.Called(ctx, ownerID, id)
	return itemOrNil(args.Get(0)), args.Error(1)
}

func (m *MockItemRepository) FindTeamItem(ctx context.Context, teamID string, id valueobjects.ItemID) (*entities.Item, error) {
	args := m.Called(ctx, teamID, id)
	return itemOrNil(args.Get(0)), args.Error(1)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id valueobjects.ItemID) (*entities.Item, error) {
	args := m.Called(ctx, id)
	return itemOrNil(args.Get(0)), args.Error(1)
}

func (m *MockItemRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Item, error) {
	args := m.Called(ctx, ownerID)
	return itemsOrNil(args.Get(0)), args.Error(1)
}

func (m *MockItemRepository) ListByTeam(ctx context.Context, teamID string) ([]*entities.Item, error) {
	args := m.Called(ctx, teamID)
	return itemsOrNil(args.Get(0)), args.Error(1)
}

func (m *MockItemRepository) ListPublic(ctx context.Context) ([]*entities.Item, error) {
	args := m.Called(ctx)
	return itemsOrNil(args.Get(0)), args.Error(1)
}

func (m *MockItemRepository) ListAll(ctx context.Context) ([]*entities.Item, error) {
	args := m.Called(ctx)
	return itemsOrNil(args.Get(0)), args.Error(1)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Save(ctx context.Context, team *entities.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, teamID string) (*entities.Team, error) {
	args := m.Called(ctx, teamID)
	if t, ok := args.Get(0).(*entities.Team); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamRepository) ListByMember(ctx context.Context, userID string) ([]*entities.Team, error) {
	args := m.Called(ctx, userID)
	if t, ok := args.Get(0).([]*entities.Team); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamRepository) ListAll(ctx context.Context) ([]*entities.Team, error) {
	args := m.Called(ctx)
	if t, ok := args.Get(0).([]*entities.Team); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}

func itemOrNil(v interface{}) *entities.Item {
	if item, ok := v.(*entities.Item); ok {
		return item
	}
	return nil
}

func itemsOrNil(v interface{}) []*entities.Item {
	if items, ok := v.([]*entities.Item); ok {
		return items
	}
	return nil
}
