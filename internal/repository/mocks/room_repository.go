package mocks

import (
	"context"
	"time"

	"yihuitong/internal/domain"

	"github.com/stretchr/testify/mock"
)

// RoomRepository 是 repository.RoomRepository 的 mock。
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) Create(ctx context.Context, room *domain.Room, ttl time.Duration) error {
	args := m.Called(ctx, room, ttl)
	return args.Error(0)
}

func (m *RoomRepository) Find(ctx context.Context, number string) (*domain.Room, error) {
	args := m.Called(ctx, number)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *RoomRepository) Exists(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) Touch(ctx context.Context, number string, ttl time.Duration) error {
	args := m.Called(ctx, number, ttl)
	return args.Error(0)
}

func (m *RoomRepository) Delete(ctx context.Context, number string) error {
	args := m.Called(ctx, number)
	return args.Error(0)
}
