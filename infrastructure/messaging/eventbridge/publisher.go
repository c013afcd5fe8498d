package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"warrantboard/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// batchSize is the PutEvents entry limit.
const batchSize = 10

// Client is the subset of the EventBridge API the publisher uses.
type Client interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher sends domain events to an EventBridge bus.
type Publisher struct {
	client       Client
	eventBusName string
	source       string
	maxRetries   int
	backoff      time.Duration
	logger       *zap.Logger
}

// NewPublisher creates a publisher for eventBusName.
func NewPublisher(client Client, eventBusName, source string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		source:       source,
		maxRetries:   3,
		backoff:      100 * time.Millisecond,
		logger:       logger,
	}
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of ten.
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += batchSize {
		end := i + batchSize
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.publishWithRetry(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) entries(domainEvents []events.DomainEvent) []types.PutEventsRequestEntry {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	for _, event := range domainEvents {
		eventData, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(eventData)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources:    []string{fmt.Sprintf("warrantboard:player/%s", event.GetAggregateID())},
		})
	}
	return entries
}

// publishWithRetry resends only the entries EventBridge reported as failed,
// backing off exponentially between attempts.
func (p *Publisher) publishWithRetry(ctx context.Context, domainEvents []events.DomainEvent) error {
	pending := p.entries(domainEvents)
	backoff := p.backoff

	for attempt := 0; len(pending) > 0; attempt++ {
		result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: pending})
		if err != nil {
			return fmt.Errorf("failed to publish events to EventBridge: %w", err)
		}
		if result.FailedEntryCount == 0 {
			p.logger.Debug("Events published to EventBridge",
				zap.Int("count", len(pending)),
				zap.String("eventBus", p.eventBusName),
			)
			return nil
		}

		var failed []types.PutEventsRequestEntry
		for i, entry := range result.Entries {
			if entry.ErrorCode == nil || i >= len(pending) {
				continue
			}
			p.logger.Warn("Failed to publish event",
				zap.String("eventType", aws.ToString(pending[i].DetailType)),
				zap.String("errorCode", aws.ToString(entry.ErrorCode)),
				zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
			)
			failed = append(failed, pending[i])
		}
		pending = failed

		if attempt+1 >= p.maxRetries {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if len(pending) > 0 {
		return fmt.Errorf("%d events failed to publish after %d attempts", len(pending), p.maxRetries)
	}
	return nil
}
