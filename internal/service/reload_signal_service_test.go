package service

import (
	"context"
	"errors"
	"testing"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/events"
	pktNats "policylens-be/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocPublisher struct {
	published []events.DocumentChanged
	err       error
}

func (f *fakeDocPublisher) PublishDocumentChanged(ctx context.Context, dc events.DocumentChanged) error {
	f.published = append(f.published, dc)
	return f.err
}

type fakeSubscriber struct {
	eventType string
	durable   string
	handler   pktNats.EventHandler
	err       error
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, eventType string, durableName string, handler pktNats.EventHandler) error {
	f.eventType, f.durable, f.handler = eventType, durableName, handler
	return f.err
}

func TestListenNatsForwardsChanges(t *testing.T) {
	pub := &fakeDocPublisher{}
	sub := &fakeSubscriber{}
	svc := NewReloadSignalService(pub, logger.NewNopLogger())

	require.NoError(t, svc.ListenNats(context.Background(), sub))
	assert.Equal(t, events.TypeDocumentChanged, sub.eventType)
	assert.Equal(t, "policylens-reload", sub.durable)

	ev := events.NewDocumentChangedEvent(events.DocumentChanged{Course: "cpsc110", Origin: events.OriginCLI})
	require.NoError(t, sub.handler(context.Background(), ev))
	assert.Equal(t, []events.DocumentChanged{{Course: "cpsc110", Origin: events.OriginNats}}, pub.published)

	pub.err = errors.New("closed")
	assert.Error(t, sub.handler(context.Background(), ev), "failures are returned so the message is redelivered")
}

func TestListenNatsSubscribeError(t *testing.T) {
	svc := NewReloadSignalService(&fakeDocPublisher{}, logger.NewNopLogger())
	assert.Error(t, svc.ListenNats(context.Background(), &fakeSubscriber{err: errors.New("no stream")}))
}

func TestHandleFileChangeSwallowsPublishErrors(t *testing.T) {
	pub := &fakeDocPublisher{err: errors.New("closed")}
	svc := NewReloadSignalService(pub, logger.NewNopLogger())

	svc.HandleFileChange(context.Background(), "/data/x_facts.json")
	assert.Equal(t, []events.DocumentChanged{{Path: "/data/x_facts.json", Origin: events.OriginWatcher}}, pub.published)
}
