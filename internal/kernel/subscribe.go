package kernel

import (
	"context"
	"sync"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/events"
)

// subscription buffers published events for a polling consumer. Transports
// that support push (MCP notifications) drain it as events arrive; polling
// clients drain it explicitly.
type subscription struct {
	mu     sync.Mutex
	buffer []events.Event
}

func (s *subscription) append(event events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = append(s.buffer, event)
}

func (s *subscription) drain() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	drained := s.buffer
	s.buffer = nil
	return drained
}

// SubscribeInput is the request record for events.subscribe.
type SubscribeInput struct {
	Topics []string `json:"topics" jsonschema:"topics to subscribe to (world, combat)"`
}

// SubscribeResult confirms a subscription.
type SubscribeResult struct {
	SubscriptionID string   `json:"subscriptionId"`
	Topics         []string `json:"topics"`
}

// EventsSubscribe registers a buffered subscription on the requested topics.
func (k *Kernel) EventsSubscribe(ctx context.Context, input SubscribeInput) (SubscribeResult, error) {
	result, err := k.record(ctx, "events.subscribe", input, func() (any, error) {
		if len(input.Topics) == 0 {
			return nil, apperr.New(apperr.CodeValidation, "at least one topic is required")
		}
		for _, topic := range input.Topics {
			if topic != string(events.TopicWorld) && topic != string(events.TopicCombat) {
				return nil, apperr.New(apperr.CodeValidation, "topic %q is unknown", topic)
			}
		}

		sub := &subscription{}
		subscriptionID := k.NextID()
		k.subscriptions[subscriptionID] = sub
		for _, topic := range input.Topics {
			k.Bus.Subscribe(events.Topic(topic), sub.append)
		}
		return SubscribeResult{SubscriptionID: subscriptionID, Topics: input.Topics}, nil
	})
	if err != nil {
		return SubscribeResult{}, err
	}
	return result.(SubscribeResult), nil
}

// PollInput is the request record for events.poll.
type PollInput struct {
	SubscriptionID string `json:"subscriptionId"`
}

// PollResult carries the buffered notifications since the last poll.
type PollResult struct {
	Events []events.Event `json:"events"`
}

// EventsPoll drains a subscription's buffered notifications.
func (k *Kernel) EventsPoll(ctx context.Context, input PollInput) (PollResult, error) {
	result, err := k.record(ctx, "events.poll", input, func() (any, error) {
		sub, ok := k.subscriptions[input.SubscriptionID]
		if !ok {
			return nil, apperr.New(apperr.CodeNotFound, "subscription %q does not exist", input.SubscriptionID)
		}
		return PollResult{Events: sub.drain()}, nil
	})
	if err != nil {
		return PollResult{}, err
	}
	return result.(PollResult), nil
}
