package security

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/acquisitions/internal/config"
)

// Rate window backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// NewWindowStoreFromConfig selects the window backend. client may be nil when
// the memory backend is configured.
func NewWindowStoreFromConfig(cfg config.RateLimitConfig, client redis.UniversalClient) (WindowStore, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryWindowStore(cfg.MaxKeys)
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("rate limit backend %q requires redis", cfg.Backend)
		}
		return NewRedisWindowStore(client, ""), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}

// NewClassifierFromConfig chains the configured classifiers. With nothing
// configured every request is clean.
func NewClassifierFromConfig(cfg config.RiskConfig, client redis.UniversalClient) RiskClassifier {
	var chain ChainClassifier
	if cfg.BlocklistEnabled && client != nil {
		chain = append(chain, NewBlocklistClassifier(client))
	}
	if cfg.ClassifierURL != "" {
		chain = append(chain, NewHTTPClassifier(cfg.ClassifierURL, cfg.Timeout()))
	}
	switch len(chain) {
	case 0:
		return NoopClassifier{}
	case 1:
		return chain[0]
	default:
		return chain
	}
}
