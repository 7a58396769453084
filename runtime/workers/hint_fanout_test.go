package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chatwire/domain/event"
	"chatwire/mocks"
)

func Test_HintFanout_Broadcasts_Globally(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	broadcasterMock := mocks.NewMockIBroadcaster(ctrl)

	done := make(chan struct{})
	// Given a hint pending in the buffer
	broadcasterMock.EXPECT().
		Global(gomock.Any(), gomock.Any()).
		Do(func(ctx context.Context, e event.DomainEvent) {
			close(done)
		}).
		Times(1)

	worker := NewHintFanout(log, broadcasterMock, 10)
	worker.Offer(event.ChatListChanged{Chat: uuid.New()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// When the worker drains the buffer
	select {
	case <-done:
		// Then the hint went out as a global broadcast
	case <-time.After(time.Second):
		req.Fail("Hint was never broadcast")
	}
}

func Test_HintFanout_Drops_When_Buffer_Is_Full(t *testing.T) {
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	// The worker is never running, so nothing may reach the broadcaster
	broadcasterMock := mocks.NewMockIBroadcaster(ctrl)

	worker := NewHintFanout(log, broadcasterMock, 1)

	// First hint fills the buffer, the second must be dropped, not block
	worker.Offer(event.ChatListChanged{Chat: uuid.New()})
	worker.Offer(event.ChatListChanged{Chat: uuid.New()})
}

func Test_HintFanout_Stops_On_Context_Cancel(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	broadcasterMock := mocks.NewMockIBroadcaster(ctrl)

	worker := NewHintFanout(log, broadcasterMock, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("Worker did not stop on cancellation")
	}
}
