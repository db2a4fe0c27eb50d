package services

import (
	"context"
	"fmt"
	"strings"
	"studyplanner-backend/internal/events"
	"studyplanner-backend/internal/metrics"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/responder"
	"studyplanner-backend/internal/store"
	"studyplanner-backend/pkg/log"

	"github.com/google/uuid"
)

// ChatService handles chat-related business logic for project threads and
// the general thread.
type ChatService struct {
	store     store.Store
	responder *responder.Responder
	hub       *events.Hub
	metrics   *metrics.Metrics
}

// NewChatService creates a new ChatService.
func NewChatService(s store.Store, r *responder.Responder, hub *events.Hub, m *metrics.Metrics) *ChatService {
	return &ChatService{
		store:     s,
		responder: r,
		hub:       hub,
		metrics:   m,
	}
}

// NewReplyHook returns the responder callback that records and publishes the
// assistant replies it appends.
func NewReplyHook(hub *events.Hub, m *metrics.Metrics) func(responder.ThreadRef, models.Message) {
	return func(thread responder.ThreadRef, msg models.Message) {
		publishMessage(hub, m, thread, msg)
	}
}

func publishMessage(hub *events.Hub, m *metrics.Metrics, thread responder.ThreadRef, msg models.Message) {
	m.Messages.WithLabelValues(string(thread.Kind), string(msg.Role)).Inc()
	hub.Publish(events.Event{Type: events.EventMessageAdded, ThreadID: thread.ID(), Message: &msg})
}

func (s *ChatService) recordMessage(thread responder.ThreadRef, msg models.Message) {
	publishMessage(s.hub, s.metrics, thread, msg)
}

func (s *ChatService) scheduleReply(thread responder.ThreadRef, content string) bool {
	if err := s.responder.Schedule(thread, content); err != nil {
		log.Warnf("[ChatService] Could not schedule reply for thread %s: %v", thread.ID(), err)
		return false
	}
	s.metrics.RepliesScheduled.Inc()
	return true
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: message content cannot be empty", ErrValidation)
	}
	return content, nil
}

// ProjectMessages returns the thread of a project.
func (s *ChatService) ProjectMessages(ctx context.Context, projectID uuid.UUID) ([]models.Message, error) {
	p, err := s.store.GetProjectByID(ctx, projectID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get project from store: %w", err)
	}
	return p.Messages, nil
}

// SendProjectMessage appends a user message to the project thread and
// schedules the assistant reply.
func (s *ChatService) SendProjectMessage(ctx context.Context, projectID uuid.UUID, content string) (*models.SendMessageResponse, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.AddMessage(ctx, projectID, store.AddMessageParams{Role: models.RoleUser, Content: content})
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add user message to project: %w", err)
	}

	thread := responder.ProjectThread(projectID)
	s.recordMessage(thread, *msg)
	pending := s.scheduleReply(thread, content)
	return &models.SendMessageResponse{Message: *msg, ReplyPending: pending}, nil
}

// TogglePin pins or unpins an assistant message as the project's study
// schedule. Any previously pinned message is unpinned.
func (s *ChatService) TogglePin(ctx context.Context, projectID, messageID uuid.UUID) ([]models.Message, error) {
	p, err := s.store.GetProjectByID(ctx, projectID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get project from store: %w", err)
	}

	var target *models.Message
	for i := range p.Messages {
		if p.Messages[i].ID == messageID {
			target = &p.Messages[i]
			break
		}
	}
	if target == nil {
		return nil, store.ErrNotFound
	}
	if target.Role != models.RoleAssistant {
		return nil, fmt.Errorf("%w: only assistant messages can be pinned as a schedule", ErrValidation)
	}

	msgs, err := s.store.PinMessage(ctx, projectID, messageID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to toggle pin in store: %w", err)
	}

	s.hub.Publish(events.Event{Type: events.EventPinToggled, ThreadID: projectID.String(), Messages: msgs})
	return msgs, nil
}

// GeneralMessages returns the general thread.
func (s *ChatService) GeneralMessages(ctx context.Context) ([]models.Message, error) {
	msgs, err := s.store.ListGeneralMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list general messages: %w", err)
	}
	return msgs, nil
}

// SendGeneralMessage appends a user message to the general thread and
// schedules the assistant reply.
func (s *ChatService) SendGeneralMessage(ctx context.Context, content string) (*models.SendMessageResponse, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.AddGeneralMessage(ctx, store.AddMessageParams{Role: models.RoleUser, Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to add user message to general thread: %w", err)
	}

	thread := responder.GeneralThread()
	s.recordMessage(thread, *msg)
	pending := s.scheduleReply(thread, content)
	return &models.SendMessageResponse{Message: *msg, ReplyPending: pending}, nil
}
