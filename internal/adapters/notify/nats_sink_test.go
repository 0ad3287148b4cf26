package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(subject string, data []byte) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockPublisher) FlushWithContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func sampleNotification() domain.Notification {
	return domain.Notification{
		NotificationID: "n-1",
		RecipientID:    "u-1",
		Template:       "workflow.approved",
		Message:        `Expenditure request "Chalk" was approved by Mrs. Ade.`,
		Kind:           domain.KindExpenditure,
		EntityID:       "e-1",
		FromStatus:     domain.StatusPending,
		ToStatus:       domain.StatusApproved,
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "notifications.workflow.expenditure.approved", Subject(sampleNotification()))

	n := sampleNotification()
	n.Kind = domain.KindExamReport
	n.Template = "workflow.submitted"
	assert.Equal(t, "notifications.workflow.exam-report.submitted", Subject(n))
}

func TestNATSSink_Deliver(t *testing.T) {
	pub := new(MockPublisher)
	var published []byte
	pub.On("Publish", "notifications.workflow.expenditure.approved", mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(1).([]byte) }).
		Return(nil).Once()
	pub.On("FlushWithContext", mock.Anything).Return(nil).Once()

	err := NewNATSSink(pub).Deliver(context.Background(), sampleNotification())
	require.NoError(t, err)
	pub.AssertExpectations(t)

	var event Event
	require.NoError(t, json.Unmarshal(published, &event))
	assert.Equal(t, "approved", event.EventType)
	assert.Equal(t, "e-1", event.ResourceID)
	assert.Equal(t, domain.KindExpenditure, event.ResourceType)
	assert.Equal(t, "u-1", event.RecipientID)
}

func TestNATSSink_DeliverErrors(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("connection closed")).Once()

	err := NewNATSSink(pub).Deliver(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "publish notifications.workflow.expenditure.approved")
	pub.AssertNotCalled(t, "FlushWithContext", mock.Anything)

	pub = new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	pub.On("FlushWithContext", mock.Anything).Return(context.DeadlineExceeded).Once()

	err = NewNATSSink(pub).Deliver(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
