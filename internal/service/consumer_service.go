package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// ClusterAnnouncer forwards a change to the other replicas.
type ClusterAnnouncer interface {
	AnnounceReload(ctx context.Context, dc events.DocumentChanged)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber    message.Subscriber
	topicName     string
	courseService ICourseService
	cluster       ClusterAnnouncer
	logger        logger.ILogger
}

// NewConsumerService accepts a nil cluster for single-instance deployments.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	courseService ICourseService,
	cluster ClusterAnnouncer,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:    subscriber,
		topicName:     topicName,
		courseService: courseService,
		cluster:       cluster,
		logger:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var dc events.DocumentChanged
	if err := json.Unmarshal(msg.Payload, &dc); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal document change", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed, never retried
		return
	}

	cs.logger.Info("CONSUMER", "Processing document change", map[string]interface{}{
		"course": dc.Course,
		"path":   dc.Path,
		"origin": dc.Origin,
	})

	var err error
	switch {
	case dc.Course != "":
		_, err = cs.courseService.Reload(ctx, dc.Course)
	case isCatalog(dc.Path):
		_, err = cs.courseService.ReloadAll(ctx)
	case dc.Path != "":
		_, err = cs.courseService.ReloadPath(ctx, dc.Path)
	default:
		_, err = cs.courseService.ReloadAll(ctx)
	}
	if err != nil {
		// Unknown courses and paths are not retried.
		cs.logger.Warn("CONSUMER", "Document change not applied", map[string]interface{}{
			"course": dc.Course,
			"path":   dc.Path,
			"error":  err.Error(),
		})
		msg.Ack()
		return
	}

	// Changes learned from the cluster are not echoed back.
	if cs.cluster != nil && dc.Origin != events.OriginCluster {
		cs.cluster.AnnounceReload(ctx, dc)
	}
	msg.Ack()
}

func isCatalog(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
