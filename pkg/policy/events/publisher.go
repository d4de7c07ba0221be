package events

import (
	"context"
	"time"

	"policylens-be/internal/pkg/logger"
	pkgEvents "policylens-be/pkg/events"
	"policylens-be/pkg/policy"
)

// BusPublisher is the subset of the NATS publisher used here.
type BusPublisher interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// Publisher abstracts event publishing for query outcomes.
type Publisher interface {
	PublishQueryOutcome(ctx context.Context, queryId string, question string, result *policy.QueryResult, latency time.Duration)
	PublishDocumentChanged(ctx context.Context, dc pkgEvents.DocumentChanged)
}

type NatsPublisher struct {
	publisher BusPublisher
	logger    logger.ILogger
}

// NewNatsPublisher accepts a nil bus; publishing then becomes a no-op.
func NewNatsPublisher(publisher BusPublisher, log logger.ILogger) *NatsPublisher {
	return &NatsPublisher{publisher: publisher, logger: log}
}

func (p *NatsPublisher) PublishQueryOutcome(ctx context.Context, queryId string, question string, result *policy.QueryResult, latency time.Duration) {
	if p.publisher == nil || result == nil {
		return
	}

	eventType := pkgEvents.TypeQueryResolved
	if result.Refused {
		eventType = pkgEvents.TypeQueryRefused
	}

	sources := make([]string, 0, len(result.Citations))
	for _, c := range result.Citations {
		sources = append(sources, c.Source)
	}

	event := pkgEvents.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"query_id":     queryId,
			"course":       result.Course,
			"question":     question,
			"intent":       string(result.Intent),
			"slots":        map[string]string(result.SlotsUsed),
			"refused":      result.Refused,
			"refusal_code": string(result.RefusalCode),
			"sources":      sources,
			"latency_ms":   latency.Milliseconds(),
		},
		OccurredAt: time.Now(),
	}

	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Error("EVENTS", "Failed to publish query event", map[string]interface{}{
			"type":     eventType,
			"query_id": queryId,
			"error":    err.Error(),
		})
	}
}

func (p *NatsPublisher) PublishDocumentChanged(ctx context.Context, dc pkgEvents.DocumentChanged) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, pkgEvents.NewDocumentChangedEvent(dc)); err != nil {
		p.logger.Error("EVENTS", "Failed to publish document change", map[string]interface{}{
			"course": dc.Course,
			"error":  err.Error(),
		})
	}
}
