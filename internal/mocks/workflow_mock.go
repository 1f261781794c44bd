package mocks

import (
	"context"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/stretchr/testify/mock"
)

// MockWorkflow is a mock implementation of the workflow runner used by the front-end
type MockWorkflow struct {
	mock.Mock
}

func (m *MockWorkflow) Run(ctx context.Context, req agent.TaskRequest) (*agent.WorkflowSummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.WorkflowSummary), args.Error(1)
}
