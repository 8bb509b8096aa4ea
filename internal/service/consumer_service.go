package service

import (
	"context"
	"encoding/json"
	"log"

	"screentosong-be/internal/websocket"
	"screentosong-be/pkg/events"
	pktNats "screentosong-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process bus and fans events out to the
// websocket feed and, when configured, the external NATS bus.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	hub            *websocket.Hub
	eventPublisher *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *websocket.Hub,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		hub:            hub,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
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
	var envelope feedEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		log.Printf("[ERROR] Failed to unmarshal feed message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// 1. Local websocket viewers
	if cs.hub != nil {
		if sid, ok := envelope.Data["session_id"].(string); ok && sid != "" {
			cs.hub.SendToSession(sid, envelope.Type, envelope.Data)
		} else {
			cs.hub.Broadcast(envelope.Type, envelope.Data)
		}
	}

	// 2. External NATS bus (optional, warn-and-continue)
	if cs.eventPublisher != nil {
		evt := events.BaseEvent{
			Type:       envelope.Type,
			Data:       envelope.Data,
			OccurredAt: envelope.OccurredAt,
		}
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] NATS publish failed for %s: %v", envelope.Type, err)
		}
	}

	msg.Ack()
}
