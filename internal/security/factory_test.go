package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/acquisitions/internal/config"
)

func TestNewWindowStoreFromConfig(t *testing.T) {
	store, err := NewWindowStoreFromConfig(config.RateLimitConfig{Backend: BackendMemory, MaxKeys: 10}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryWindowStore{}, store)

	_, err = NewWindowStoreFromConfig(config.RateLimitConfig{Backend: BackendRedis}, nil)
	assert.Error(t, err)

	_, client := newTestRedis(t)
	store, err = NewWindowStoreFromConfig(config.RateLimitConfig{Backend: BackendRedis}, client)
	require.NoError(t, err)
	assert.IsType(t, &RedisWindowStore{}, store)

	_, err = NewWindowStoreFromConfig(config.RateLimitConfig{Backend: "etcd"}, nil)
	assert.Error(t, err)
}

func TestNewClassifierFromConfig(t *testing.T) {
	assert.IsType(t, NoopClassifier{}, NewClassifierFromConfig(config.RiskConfig{}, nil))
	assert.IsType(t, NoopClassifier{}, NewClassifierFromConfig(config.RiskConfig{BlocklistEnabled: true}, nil))

	_, client := newTestRedis(t)
	assert.IsType(t, &BlocklistClassifier{}, NewClassifierFromConfig(config.RiskConfig{BlocklistEnabled: true}, client))

	both := NewClassifierFromConfig(config.RiskConfig{
		BlocklistEnabled: true,
		ClassifierURL:    "http://127.0.0.1:1/classify",
		TimeoutMillis:    100,
	}, client)
	chain, ok := both.(ChainClassifier)
	require.True(t, ok)
	assert.Len(t, chain, 2)
}
