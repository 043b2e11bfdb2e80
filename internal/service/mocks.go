package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockManager is a mock implementation of Manager for testing.
type MockManager struct {
	mock.Mock
}

func (m *MockManager) SetServiceRunning(ctx context.Context, running bool) (bool, error) {
	args := m.Called(ctx, running)
	return args.Bool(0), args.Error(1)
}

func (m *MockManager) SetProfileEnabled(profile string, enabled bool) (bool, error) {
	args := m.Called(profile, enabled)
	return args.Bool(0), args.Error(1)
}

func (m *MockManager) Status(ctx context.Context) (*Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Status), args.Error(1)
}
