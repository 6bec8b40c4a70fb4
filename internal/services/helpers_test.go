package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yukikurage/agency-management-api/internal/events"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evt events.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

// eventsOfType returns the events of one type passed to Publish, in call order.
func (m *mockPublisher) eventsOfType(typ string) []events.Event {
	var out []events.Event
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		evt := call.Arguments.Get(1).(events.Event)
		if evt.Type == typ {
			out = append(out, evt)
		}
	}
	return out
}

func newMockPublisher() *mockPublisher {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	return pub
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateTasksFromBrief(ctx context.Context, stageName, brief string) ([]GeneratedTask, error) {
	args := m.Called(ctx, stageName, brief)
	tasks, _ := args.Get(0).([]GeneratedTask)
	return tasks, args.Error(1)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func ptr[T any](v T) *T {
	return &v
}
