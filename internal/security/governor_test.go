package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/acquisitions/internal/domain"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

type brokenStore struct{}

func (brokenStore) Allow(context.Context, string, int, time.Duration) (WindowResult, error) {
	return WindowResult{}, errors.New("redis down")
}

func newTestGovernor(t *testing.T, classifier RiskClassifier, failOpen bool) (*Governor, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	return NewGovernor(GovernorOptions{
		Store:      store,
		Classifier: classifier,
		Limits:     NewLimits(5, 10, 20, time.Minute),
		Interval:   time.Minute,
		Timeout:    100 * time.Millisecond,
		FailOpen:   failOpen,
	}), clock
}

func decideN(t *testing.T, g *Governor, req Request, n int) (admitted int, last Decision) {
	t.Helper()
	for i := 0; i < n; i++ {
		d, err := g.Decide(context.Background(), req)
		require.NoError(t, err)
		if d.Allowed() {
			admitted++
		}
		last = d
	}
	return admitted, last
}

func TestGovernorDefaultCeilingsPerRole(t *testing.T) {
	for role, ceiling := range map[domain.Role]int{
		domain.RoleGuest: 5,
		domain.RoleUser:  10,
		domain.RoleAdmin: 20,
	} {
		t.Run(string(role), func(t *testing.T) {
			g, _ := newTestGovernor(t, nil, true)
			admitted, last := decideN(t, g, Request{Role: role, ClientID: "1.2.3.4"}, ceiling+1)

			assert.Equal(t, ceiling, admitted)
			assert.Equal(t, VerdictRateLimit, last.Verdict)
			assert.Equal(t, SourceWindow, last.Source)
			assert.True(t, apperrors.IsCode(last.Err(), apperrors.CodeRateLimited))
		})
	}
}

func TestGovernorResumesAfterWindow(t *testing.T) {
	g, clock := newTestGovernor(t, nil, true)
	req := Request{Role: domain.RoleGuest, ClientID: "1.2.3.4"}

	admitted, _ := decideN(t, g, req, 8)
	require.Equal(t, 5, admitted)

	clock.Advance(time.Minute + time.Second)
	admitted, _ = decideN(t, g, req, 5)
	assert.Equal(t, 5, admitted)
}

func TestGovernorRoleMessages(t *testing.T) {
	limits := NewLimits(5, 10, 20, time.Minute)
	assert.Equal(t, "Guest limit exceeded 5 requests per minute. Slow down.", limits[domain.RoleGuest].Message)
	assert.Equal(t, "User limit exceeded 10 requests per minute. Slow down.", limits[domain.RoleUser].Message)
	assert.Equal(t, "Admin limit exceeded 20 requests per minute. Slow down.", limits[domain.RoleAdmin].Message)
}

func TestGovernorUnknownRoleUsesGuestTier(t *testing.T) {
	g, _ := newTestGovernor(t, nil, true)
	admitted, last := decideN(t, g, Request{Role: domain.Role("intruder"), ClientID: "x"}, 6)

	assert.Equal(t, 5, admitted)
	assert.Equal(t, domain.RoleGuest, last.Role)
}

func TestGovernorPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		external Verdict
		want     Verdict
		message  string
	}{
		{"bot beats exhausted window", VerdictBot, VerdictBot, msgBot},
		{"shield beats exhausted window", VerdictShield, VerdictShield, msgShield},
		{"external rate limit", VerdictRateLimit, VerdictRateLimit, "Guest limit exceeded 5 requests per minute. Slow down."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			external := VerdictClean
			g, _ := newTestGovernor(t, ClassifierFunc(func(context.Context, RiskRequest) (Verdict, error) {
				return external, nil
			}), true)
			req := Request{Role: domain.RoleGuest, ClientID: "1.2.3.4"}

			// exhaust the local window first so both conditions hold
			_, last := decideN(t, g, req, 6)
			require.Equal(t, VerdictRateLimit, last.Verdict)

			external = tc.external
			d, err := g.Decide(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Verdict)
			assert.Equal(t, SourceClassifier, d.Source)
			assert.Equal(t, tc.message, d.Message)
		})
	}
}

func TestGovernorClassifierDenialsDoNotConsumeBudget(t *testing.T) {
	external := VerdictBot
	g, _ := newTestGovernor(t, ClassifierFunc(func(context.Context, RiskRequest) (Verdict, error) {
		return external, nil
	}), true)
	req := Request{Role: domain.RoleGuest, ClientID: "1.2.3.4"}

	admitted, _ := decideN(t, g, req, 10)
	require.Zero(t, admitted)

	external = VerdictClean
	admitted, _ = decideN(t, g, req, 5)
	assert.Equal(t, 5, admitted)
}

func TestGovernorClassifierFailurePolicy(t *testing.T) {
	down := failing(errors.New("classifier timeout"))

	open, _ := newTestGovernor(t, down, true)
	d, err := open.Decide(context.Background(), Request{Role: domain.RoleUser, ClientID: "a"})
	require.NoError(t, err)
	assert.True(t, d.Allowed())

	closed, _ := newTestGovernor(t, down, false)
	d, err = closed.Decide(context.Background(), Request{Role: domain.RoleUser, ClientID: "a"})
	require.NoError(t, err)
	assert.Equal(t, VerdictShield, d.Verdict)
	assert.True(t, apperrors.IsCode(d.Err(), apperrors.CodeShieldDenied))
}

func TestGovernorClassifierIsBoundedByTimeout(t *testing.T) {
	slow := ClassifierFunc(func(ctx context.Context, _ RiskRequest) (Verdict, error) {
		select {
		case <-ctx.Done():
			return VerdictClean, ctx.Err()
		case <-time.After(5 * time.Second):
			return VerdictBot, nil
		}
	})
	g, _ := newTestGovernor(t, slow, true)

	start := time.Now()
	d, err := g.Decide(context.Background(), Request{Role: domain.RoleGuest, ClientID: "a"})
	require.NoError(t, err)
	assert.True(t, d.Allowed())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGovernorStoreFailure(t *testing.T) {
	open := NewGovernor(GovernorOptions{Store: brokenStore{}, FailOpen: true})
	d, err := open.Decide(context.Background(), Request{Role: domain.RoleGuest, ClientID: "a"})
	require.NoError(t, err)
	assert.True(t, d.Allowed())

	closed := NewGovernor(GovernorOptions{Store: brokenStore{}, FailOpen: false})
	d, err = closed.Decide(context.Background(), Request{Role: domain.RoleGuest, ClientID: "a"})
	require.NoError(t, err)
	assert.Equal(t, VerdictShield, d.Verdict)
	assert.Equal(t, SourceWindow, d.Source)
	assert.Equal(t, "Request blocked by security policy.", d.Message)

	// Same denial shape as a failed classifier under the same policy.
	failing := ClassifierFunc(func(context.Context, RiskRequest) (Verdict, error) {
		return VerdictClean, errors.New("classifier down")
	})
	viaClassifier, err := NewGovernor(GovernorOptions{Store: brokenStore{}, Classifier: failing}).
		Decide(context.Background(), Request{Role: domain.RoleGuest, ClientID: "a"})
	require.NoError(t, err)
	assert.Equal(t, d.Verdict, viaClassifier.Verdict)
	assert.Equal(t, d.Message, viaClassifier.Message)
	assert.True(t, apperrors.IsCode(d.Err(), apperrors.CodeShieldDenied))
	assert.Equal(t, 403, apperrors.ToDomainError(d.Err()).HTTPStatus)
}
