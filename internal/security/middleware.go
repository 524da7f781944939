package security

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/acquisitions/internal/auth"
	"github.com/spec-kit/acquisitions/internal/events"
	"github.com/spec-kit/acquisitions/internal/observability"
)

// Middleware applies the governor to every request. It must run after
// AuthMiddleware.Identify so authenticated callers get their role's ceiling.
// A denial returns exactly one error and never reaches the next handler.
func (g *Governor) Middleware(dispatcher events.Dispatcher, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := Request{
			Role:      auth.RoleFromContext(c),
			ClientID:  c.IP(),
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
			Method:    c.Method(),
			Path:      c.Path(),
		}

		decision, err := g.Decide(c.UserContext(), req)
		if err != nil {
			return err
		}
		metrics.RecordDecision(string(decision.Role), string(decision.Verdict))
		if decision.Allowed() {
			return c.Next()
		}

		actor := events.Actor{Role: decision.Role}
		if principal, ok := auth.PrincipalFromContext(c); ok {
			actor.UserID = principal.ID
		}
		if dispatcher != nil {
			if err := dispatcher.Publish(c.UserContext(), events.Event{
				Type:  events.EventRequestDenied,
				Actor: actor,
				Payload: events.RequestDeniedPayload{
					IP:        req.IP,
					UserAgent: req.UserAgent,
					Path:      req.Path,
					Method:    req.Method,
					Verdict:   string(decision.Verdict),
					Source:    decision.Source,
				},
			}); err != nil {
				g.logger.Warn("publish denial event", zap.Error(err))
			}
		}
		return decision.Err()
	}
}
