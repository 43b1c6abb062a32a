package mocks

import (
	"context"

	"ascend/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockProgressionRepository struct {
	mock.Mock
}

func (m *MockProgressionRepository) GetActivitySnapshot(ctx context.Context, userID int64) (*model.ActivitySnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ActivitySnapshot), args.Error(1)
}

func (m *MockProgressionRepository) GetUserBadges(ctx context.Context, userID int64) ([]model.Badge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Badge), args.Error(1)
}

func (m *MockProgressionRepository) SaveBadge(ctx context.Context, userID int64, badge model.Badge) error {
	args := m.Called(ctx, userID, badge)
	return args.Error(0)
}

func (m *MockProgressionRepository) GetCompletedQuestIDs(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProgressionRepository) SettleRewards(ctx context.Context, userID int64, ids []string, xp int) error {
	args := m.Called(ctx, userID, ids, xp)
	return args.Error(0)
}

func (m *MockProgressionRepository) GetUserLevel(ctx context.Context, userID int64) (int, int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Int(1), args.Error(2)
}

type MockQuestGenerator struct {
	mock.Mock
}

func (m *MockQuestGenerator) Generate(ctx context.Context, userID int64, category string) ([]model.Quest, string, error) {
	args := m.Called(ctx, userID, category)
	var quests []model.Quest
	if args.Get(0) != nil {
		quests = args.Get(0).([]model.Quest)
	}
	return quests, args.String(1), args.Error(2)
}

func (m *MockQuestGenerator) GenerateContextual(ctx context.Context, userID int64, triggerPoint string) ([]model.Quest, string, error) {
	args := m.Called(ctx, userID, triggerPoint)
	var quests []model.Quest
	if args.Get(0) != nil {
		quests = args.Get(0).([]model.Quest)
	}
	return quests, args.String(1), args.Error(2)
}
