package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
)

type subscriber struct {
	id      interfaces.Subscription
	handler interfaces.EventHandler
}

// Service is the in-process session event bus
type Service struct {
	mu          sync.RWMutex
	subscribers map[interfaces.EventType][]subscriber
	owners      map[interfaces.Subscription]interfaces.EventType
	nextID      interfaces.Subscription
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[interfaces.EventType][]subscriber),
		owners:      make(map[interfaces.Subscription]interfaces.EventType),
		logger:      logger,
	}
}

func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) (interfaces.Subscription, error) {
	if handler == nil {
		return 0, fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subscribers[eventType] = append(s.subscribers[eventType], subscriber{id: id, handler: handler})
	s.owners[id] = eventType

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", len(s.subscribers[eventType])).
		Msg("Event handler subscribed")

	return id, nil
}

func (s *Service) Unsubscribe(sub interfaces.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventType, ok := s.owners[sub]
	if !ok {
		return fmt.Errorf("subscription %d not found", sub)
	}
	delete(s.owners, sub)

	subs := s.subscribers[eventType]
	for i, existing := range subs {
		if existing.id == sub {
			// Copy so in-flight Publish calls keep their snapshot intact
			s.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Msg("Event handler unsubscribed")
	return nil
}

func (s *Service) handlers(eventType interfaces.EventType) []subscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribers[eventType]
}

func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	subs := s.handlers(event.Type)
	if len(subs) == 0 {
		return nil
	}

	for _, sub := range subs {
		h := sub.handler
		common.SafeGo(s.logger, "event:"+string(event.Type), func() {
			if err := h(ctx, event); err != nil {
				s.logger.Warn().
					Err(err).
					Str("event_type", string(event.Type)).
					Str("session_id", event.SessionID).
					Msg("Event handler failed")
			}
		})
	}
	return nil
}

func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	subs := s.handlers(event.Type)
	if len(subs) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, sub := range subs {
		wg.Add(1)
		go func(h interfaces.EventHandler) {
			defer wg.Done()
			if err := h(ctx, event); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(sub.handler)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%d event handlers failed for %s: %w", len(errs), event.Type, err)
	}
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = make(map[interfaces.EventType][]subscriber)
	s.owners = make(map[interfaces.Subscription]interfaces.EventType)
	s.logger.Info().Msg("Event service closed")
	return nil
}
