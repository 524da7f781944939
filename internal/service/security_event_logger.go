package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/acquisitions/internal/events"
)

// SecurityEventLogger writes security events to the structured log.
type SecurityEventLogger struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewSecurityEventLogger creates the logger service.
func NewSecurityEventLogger(dispatcher events.Dispatcher, logger *zap.Logger) *SecurityEventLogger {
	return &SecurityEventLogger{
		dispatcher: dispatcher,
		logger:     logger.Named("security"),
	}
}

// RegisterHandlers subscribes to events.
func (s *SecurityEventLogger) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventRequestDenied, s.handleRequestDenied)
	for _, eventType := range []events.EventType{
		events.EventUserSignedUp,
		events.EventUserSignedIn,
		events.EventUserSignedOut,
		events.EventUserUpdated,
		events.EventUserDeleted,
	} {
		s.dispatcher.Subscribe(eventType, s.handleUserEvent)
	}
}

func (s *SecurityEventLogger) handleRequestDenied(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("role", string(event.Actor.Role)),
		zap.String("user_id", event.Actor.UserID),
	}
	if p, ok := event.Payload.(events.RequestDeniedPayload); ok {
		fields = append(fields,
			zap.String("ip", p.IP),
			zap.String("user_agent", p.UserAgent),
			zap.String("method", p.Method),
			zap.String("path", p.Path),
			zap.String("verdict", p.Verdict),
			zap.String("source", p.Source))
	}
	s.logger.Warn("request denied", fields...)
	return nil
}

func (s *SecurityEventLogger) handleUserEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("actor_role", string(event.Actor.Role)),
	}
	if p, ok := event.Payload.(events.UserPayload); ok {
		fields = append(fields, zap.String("email", p.Email), zap.String("role", string(p.Role)))
		if p.RoleChanged {
			fields = append(fields, zap.Bool("role_changed", true))
		}
	}
	s.logger.Info(string(event.Type), fields...)
	return nil
}
