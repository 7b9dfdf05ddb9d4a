package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/events"
)

type mockEventBridge struct {
	mock.Mock
}

func (m *mockEventBridge) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func itemEvents(n int) []events.DomainEvent {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewItemCreated("item-"+string(rune('a'+i)), "alice", "", "INDIVIDUAL", at)
	}
	return out
}

func TestPublishBatch_ChunksByTen(t *testing.T) {
	client := new(mockEventBridge)
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 10
	})).Return(&eventbridge.PutEventsOutput{}, nil).Twice()
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 3
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	p := NewPublisher(client, "items-bus", zap.NewNop())
	require.NoError(t, p.PublishBatch(context.Background(), itemEvents(23)))
	client.AssertExpectations(t)
}

func TestPublish_EntryShape(t *testing.T) {
	client := new(mockEventBridge)
	var captured *eventbridge.PutEventsInput
	client.On("PutEvents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*eventbridge.PutEventsInput) }).
		Return(&eventbridge.PutEventsOutput{}, nil)

	p := NewPublisher(client, "items-bus", zap.NewNop())
	evt := events.NewItemCreated("i-1", "alice", "T1", "TEAM", time.Now().UTC())
	require.NoError(t, p.Publish(context.Background(), evt))

	require.Len(t, captured.Entries, 1)
	entry := captured.Entries[0]
	assert.Equal(t, "items-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, events.EventTypeItemCreated, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "T1", detail["team_id"])
	assert.Equal(t, "i-1", detail["aggregate_id"])
}

func TestPublishBatch_Failures(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		client := new(mockEventBridge)
		client.On("PutEvents", mock.Anything, mock.Anything).Return(nil, errors.New("network down"))

		err := NewPublisher(client, "bus", zap.NewNop()).PublishBatch(context.Background(), itemEvents(12))
		assert.ErrorContains(t, err, "network down")
		client.AssertNumberOfCalls(t, "PutEvents", 1)
	})

	t.Run("partial failure is logged per entry", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		client := new(mockEventBridge)
		client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{EventId: aws.String("ok")},
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try again")},
			},
		}, nil)

		err := NewPublisher(client, "bus", zap.New(core)).PublishBatch(context.Background(), itemEvents(2))
		assert.ErrorContains(t, err, "1 events failed")
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "item-b", logs.All()[0].ContextMap()["aggregateID"])
	})
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := NewLogPublisher(zap.New(core))
	require.NoError(t, p.PublishBatch(context.Background(), itemEvents(3)))
	assert.Equal(t, 3, logs.Len())
}
