package security

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(v Verdict) RiskClassifier {
	return ClassifierFunc(func(context.Context, RiskRequest) (Verdict, error) { return v, nil })
}

func failing(err error) RiskClassifier {
	return ClassifierFunc(func(context.Context, RiskRequest) (Verdict, error) { return VerdictClean, err })
}

func TestParseVerdict(t *testing.T) {
	for _, s := range []string{"clean", "bot", "shield", "rateLimit"} {
		v, err := ParseVerdict(s)
		require.NoError(t, err)
		assert.Equal(t, Verdict(s), v)
	}
	_, err := ParseVerdict("BOT")
	assert.Error(t, err)
}

func TestChainClassifierKeepsMostSevere(t *testing.T) {
	ctx := context.Background()

	v, err := ChainClassifier{fixed(VerdictRateLimit), fixed(VerdictShield), fixed(VerdictClean)}.Classify(ctx, RiskRequest{})
	require.NoError(t, err)
	assert.Equal(t, VerdictShield, v)

	v, err = ChainClassifier{fixed(VerdictShield), fixed(VerdictBot)}.Classify(ctx, RiskRequest{})
	require.NoError(t, err)
	assert.Equal(t, VerdictBot, v)

	v, err = ChainClassifier{failing(errors.New("down")), fixed(VerdictShield)}.Classify(ctx, RiskRequest{})
	require.NoError(t, err)
	assert.Equal(t, VerdictShield, v)

	_, err = ChainClassifier{failing(errors.New("down")), fixed(VerdictClean)}.Classify(ctx, RiskRequest{})
	assert.Error(t, err)
}

func TestHTTPClassifier(t *testing.T) {
	received := make(chan RiskRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RiskRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		received <- req
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"verdict":"bot","reason":"headless"}`))
	}))
	defer srv.Close()

	v, err := NewHTTPClassifier(srv.URL, time.Second).Classify(context.Background(), RiskRequest{
		IP: "9.9.9.9", UserAgent: "curl/8", Method: "GET", Path: "/api/users", Role: "guest",
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictBot, v)
	got := <-received
	assert.Equal(t, "9.9.9.9", got.IP)
	assert.Equal(t, "curl/8", got.UserAgent)
}

func TestHTTPClassifierFailures(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"verdict":"clean"}`))
	}))
	defer slow.Close()

	_, err := NewHTTPClassifier(slow.URL, 50*time.Millisecond).Classify(context.Background(), RiskRequest{})
	assert.Error(t, err, "timeout must surface as an error")

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	_, err = NewHTTPClassifier(broken.URL, time.Second).Classify(context.Background(), RiskRequest{})
	assert.Error(t, err)

	unknown := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"verdict":"suspicious"}`))
	}))
	defer unknown.Close()

	_, err = NewHTTPClassifier(unknown.URL, time.Second).Classify(context.Background(), RiskRequest{})
	assert.Error(t, err)
}

func TestBlocklistClassifier(t *testing.T) {
	mr, rdb := newTestRedis(t)
	_, err := mr.SAdd(BotIPsKey, "6.6.6.6")
	require.NoError(t, err)
	_, err = mr.SAdd(ShieldIPsKey, "7.7.7.7", "6.6.6.6")
	require.NoError(t, err)

	c := NewBlocklistClassifier(rdb)
	ctx := context.Background()

	cases := map[string]Verdict{
		"6.6.6.6": VerdictBot,
		"7.7.7.7": VerdictShield,
		"1.1.1.1": VerdictClean,
		"":        VerdictClean,
	}
	for ip, want := range cases {
		v, err := c.Classify(ctx, RiskRequest{IP: ip})
		require.NoError(t, err)
		assert.Equal(t, want, v, ip)
	}

	mr.Close()
	_, err = c.Classify(ctx, RiskRequest{IP: "1.1.1.1"})
	assert.Error(t, err)
}
