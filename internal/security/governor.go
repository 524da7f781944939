package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/acquisitions/internal/config"
	"github.com/spec-kit/acquisitions/internal/domain"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

const (
	msgBot    = "Bots are not allowed"
	msgShield = "Request blocked by security policy."
)

// Where a verdict came from.
const (
	SourceClassifier = "classifier"
	SourceWindow     = "window"
)

// RoleLimit is the ceiling and denial message for one role.
type RoleLimit struct {
	Ceiling int
	Message string
}

// Limits maps every role to its ceiling. Adding a role is a table entry.
type Limits map[domain.Role]RoleLimit

// NewLimits builds the role table for the given ceilings.
func NewLimits(guest, user, admin int, interval time.Duration) Limits {
	return Limits{
		domain.RoleGuest: newRoleLimit(domain.RoleGuest, guest, interval),
		domain.RoleUser:  newRoleLimit(domain.RoleUser, user, interval),
		domain.RoleAdmin: newRoleLimit(domain.RoleAdmin, admin, interval),
	}
}

// LimitsFromConfig builds the role table from configuration.
func LimitsFromConfig(cfg config.RateLimitConfig) Limits {
	return NewLimits(cfg.GuestLimit, cfg.UserLimit, cfg.AdminLimit, cfg.Window())
}

func newRoleLimit(role domain.Role, ceiling int, interval time.Duration) RoleLimit {
	per := "minute"
	if interval != time.Minute {
		per = interval.String()
	}
	name := string(role)
	title := strings.ToUpper(name[:1]) + name[1:]
	return RoleLimit{
		Ceiling: ceiling,
		Message: fmt.Sprintf("%s limit exceeded %d requests per %s. Slow down.", title, ceiling, per),
	}
}

// lookup falls back to the guest tier for roles missing from the table.
func (l Limits) lookup(role domain.Role) (domain.Role, RoleLimit) {
	if limit, ok := l[role]; ok {
		return role, limit
	}
	return domain.RoleGuest, l[domain.RoleGuest]
}

// Request identifies the caller for one admission decision.
type Request struct {
	Role      domain.Role
	ClientID  string
	IP        string
	UserAgent string
	Method    string
	Path      string
}

// Decision is the single outcome of the governor for one request.
type Decision struct {
	Verdict Verdict
	Source  string
	Role    domain.Role
	Count   int
	Limit   int
	Message string
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictClean
}

// Err returns the tagged denial error, nil when admitted.
func (d Decision) Err() error {
	switch d.Verdict {
	case VerdictBot:
		return apperrors.NewBotDenied(d.Message)
	case VerdictShield:
		return apperrors.NewShieldDenied(d.Message)
	case VerdictRateLimit:
		return apperrors.NewRateLimited(d.Message)
	default:
		return nil
	}
}

// Governor admits or denies requests before business logic runs.
type Governor struct {
	store      WindowStore
	classifier RiskClassifier
	limits     Limits
	interval   time.Duration
	timeout    time.Duration
	failOpen   bool
	logger     *zap.Logger
}

// GovernorOptions configures a Governor.
type GovernorOptions struct {
	Store      WindowStore
	Classifier RiskClassifier
	Limits     Limits
	Interval   time.Duration
	// Timeout bounds the classifier call.
	Timeout time.Duration
	// FailOpen admits requests when the classifier or the window store fails.
	FailOpen bool
	Logger   *zap.Logger
}

// NewGovernor builds a governor.
func NewGovernor(opts GovernorOptions) *Governor {
	if opts.Classifier == nil {
		opts.Classifier = NoopClassifier{}
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Limits == nil {
		opts.Limits = NewLimits(5, 10, 20, opts.Interval)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Governor{
		store:      opts.Store,
		classifier: opts.Classifier,
		limits:     opts.Limits,
		interval:   opts.Interval,
		timeout:    opts.Timeout,
		failOpen:   opts.FailOpen,
		logger:     opts.Logger,
	}
}

// Decide evaluates bot, shield and rate-limit conditions in that order and
// returns the first denial. Only admitted requests consume window budget.
func (g *Governor) Decide(ctx context.Context, req Request) (Decision, error) {
	role, limit := g.limits.lookup(req.Role)
	decision := Decision{Verdict: VerdictClean, Role: role, Limit: limit.Ceiling}

	verdict, err := g.classify(ctx, req, role)
	if err != nil {
		if !g.failOpen {
			g.logger.Warn("risk classifier failed; denying", zap.String("ip", req.IP), zap.Error(err))
			return g.deny(decision, VerdictShield, SourceClassifier, limit), nil
		}
		g.logger.Warn("risk classifier failed; admitting", zap.String("ip", req.IP), zap.Error(err))
		verdict = VerdictClean
	}

	switch verdict {
	case VerdictBot, VerdictShield, VerdictRateLimit:
		return g.deny(decision, verdict, SourceClassifier, limit), nil
	}

	result, err := g.store.Allow(ctx, windowKey(role, req.ClientID), limit.Ceiling, g.interval)
	if err != nil {
		if !g.failOpen {
			g.logger.Warn("rate window unavailable; denying", zap.String("ip", req.IP), zap.Error(err))
			return g.deny(decision, VerdictShield, SourceWindow, limit), nil
		}
		g.logger.Warn("rate window unavailable; admitting", zap.String("ip", req.IP), zap.Error(err))
		return decision, nil
	}
	decision.Count = result.Count
	if !result.Allowed {
		return g.deny(decision, VerdictRateLimit, SourceWindow, limit), nil
	}
	return decision, nil
}

func (g *Governor) classify(ctx context.Context, req Request, role domain.Role) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.classifier.Classify(ctx, RiskRequest{
		IP:        req.IP,
		UserAgent: req.UserAgent,
		Method:    req.Method,
		Path:      req.Path,
		Role:      string(role),
	})
}

func (g *Governor) deny(d Decision, verdict Verdict, source string, limit RoleLimit) Decision {
	d.Verdict = verdict
	d.Source = source
	switch verdict {
	case VerdictBot:
		d.Message = msgBot
	case VerdictShield:
		d.Message = msgShield
	default:
		d.Message = limit.Message
	}
	return d
}

func windowKey(role domain.Role, clientID string) string {
	return string(role) + ":" + clientID
}
