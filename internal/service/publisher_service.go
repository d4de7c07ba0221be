package service

import (
	"context"
	"encoding/json"

	"policylens-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// DocumentChangedTopic is the in-process topic every change source feeds.
const DocumentChangedTopic = "policy.document_changed"

type IPublisherService interface {
	PublishDocumentChanged(ctx context.Context, dc events.DocumentChanged) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) PublishDocumentChanged(ctx context.Context, dc events.DocumentChanged) error {
	payload, err := json.Marshal(dc)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("origin", dc.Origin)
	return ps.publisher.Publish(ps.topicName, msg)
}
