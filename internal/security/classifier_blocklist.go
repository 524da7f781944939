package security

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis sets maintained by operators or an upstream WAF.
const (
	BotIPsKey    = "security:bot_ips"
	ShieldIPsKey = "security:shield_ips"
)

// BlocklistClassifier maps client addresses listed in Redis sets to bot or shield verdicts.
type BlocklistClassifier struct {
	client redis.UniversalClient
}

// NewBlocklistClassifier builds a classifier over the given client.
func NewBlocklistClassifier(client redis.UniversalClient) *BlocklistClassifier {
	return &BlocklistClassifier{client: client}
}

// Classify implements RiskClassifier.
func (b *BlocklistClassifier) Classify(ctx context.Context, req RiskRequest) (Verdict, error) {
	if req.IP == "" {
		return VerdictClean, nil
	}

	pipe := b.client.Pipeline()
	bot := pipe.SIsMember(ctx, BotIPsKey, req.IP)
	shield := pipe.SIsMember(ctx, ShieldIPsKey, req.IP)
	if _, err := pipe.Exec(ctx); err != nil {
		return VerdictClean, fmt.Errorf("blocklist lookup: %w", err)
	}

	switch {
	case bot.Val():
		return VerdictBot, nil
	case shield.Val():
		return VerdictShield, nil
	default:
		return VerdictClean, nil
	}
}
