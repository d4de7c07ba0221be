package service

import (
	"context"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/events"
	pktNats "policylens-be/pkg/nats"
)

// EventSubscriber is the subset of the NATS subscriber used for reloads.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType string, durableName string, handler pktNats.EventHandler) error
}

// ReloadSignalService funnels every change source (file watcher, NATS,
// peer instances) into the in-process document-changed topic.
type ReloadSignalService struct {
	publisher IPublisherService
	logger    logger.ILogger
}

func NewReloadSignalService(publisher IPublisherService, log logger.ILogger) *ReloadSignalService {
	return &ReloadSignalService{publisher: publisher, logger: log}
}

// HandleFileChange is the watcher callback.
func (s *ReloadSignalService) HandleFileChange(ctx context.Context, path string) {
	s.forward(ctx, events.DocumentChanged{Path: path, Origin: events.OriginWatcher})
}

// HandleClusterReload is the hub callback for reloads announced by peers.
func (s *ReloadSignalService) HandleClusterReload(ctx context.Context, dc events.DocumentChanged) {
	s.forward(ctx, dc)
}

// ListenNats consumes DOCUMENT_CHANGED with a shared durable, so one replica
// handles each message and spreads it through the cluster channel.
func (s *ReloadSignalService) ListenNats(ctx context.Context, sub EventSubscriber) error {
	err := sub.Subscribe(ctx, events.TypeDocumentChanged, "policylens-reload", func(ctx context.Context, event events.Event) error {
		dc := events.DocumentChangedFromPayload(event.Payload())
		dc.Origin = events.OriginNats
		return s.publisher.PublishDocumentChanged(ctx, dc)
	})
	if err != nil {
		return err
	}
	s.logger.Info("RELOAD", "Listening for DOCUMENT_CHANGED on NATS", nil)
	return nil
}

func (s *ReloadSignalService) forward(ctx context.Context, dc events.DocumentChanged) {
	if err := s.publisher.PublishDocumentChanged(ctx, dc); err != nil {
		s.logger.Error("RELOAD", "Failed to publish document change", map[string]interface{}{
			"course": dc.Course,
			"path":   dc.Path,
			"origin": dc.Origin,
			"error":  err.Error(),
		})
	}
}
