package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

// ChannelSink fans delivered events out to in-process subscribers, one
// buffered channel per recipient. A full or absent subscriber channel drops
// the event, consistent with at-most-once delivery.
type ChannelSink struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]chan domain.NotificationEvent
	logger *slog.Logger
	buffer int
}

func NewChannelSink(logger *slog.Logger, buffer int) *ChannelSink {
	return &ChannelSink{
		subs:   make(map[uuid.UUID]chan domain.NotificationEvent),
		logger: logger,
		buffer: buffer,
	}
}

// Subscribe returns the recipient's event channel, creating it on first use.
func (s *ChannelSink) Subscribe(recipientID uuid.UUID) <-chan domain.NotificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.subs[recipientID]
	if !ok {
		ch = make(chan domain.NotificationEvent, s.buffer)
		s.subs[recipientID] = ch
	}
	return ch
}

func (s *ChannelSink) Unsubscribe(recipientID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[recipientID]; ok {
		close(ch)
		delete(s.subs, recipientID)
	}
}

func (s *ChannelSink) Deliver(_ context.Context, event domain.NotificationEvent) error {
	s.mu.RLock()
	ch, ok := s.subs[event.RecipientID]
	s.mu.RUnlock()

	if !ok {
		s.logger.Debug("no subscriber for notification",
			"recipient_id", event.RecipientID,
			"type", event.Type,
		)
		return nil
	}

	select {
	case ch <- event:
	default:
		s.logger.Warn("subscriber channel full, dropping notification",
			"recipient_id", event.RecipientID,
			"notification_id", event.ID,
		)
	}
	return nil
}
