package mocks

import (
	"context"

	"github.com/omriShneor/taskquest/internal/calendar"
	"github.com/omriShneor/taskquest/internal/gcal"
	"github.com/stretchr/testify/mock"
)

// MockScheduler is a mock implementation of the event scheduler client
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, req calendar.EventRequest) calendar.Outcome {
	args := m.Called(ctx, req)
	return args.Get(0).(calendar.Outcome)
}

// MockEventCreator is a mock implementation of the Google Calendar event creator
type MockEventCreator struct {
	mock.Mock
}

func (m *MockEventCreator) CreateEvent(ctx context.Context, input gcal.EventInput) (*gcal.CreatedEvent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcal.CreatedEvent), args.Error(1)
}
